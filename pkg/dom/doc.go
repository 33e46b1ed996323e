// Package dom is the in-process host the form builder renders into: an
// *html.Node tree with id and XPath lookups, synchronous event dispatch with
// bubbling, and focus tracking. Server-side rendering, the terminal editor and
// the tests all drive the same tree a browser would.
package dom
