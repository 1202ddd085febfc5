// Package mdplugin renders markdown embedded in HTML documents.
//
// Elements with the class "markdown" hold block markdown, elements with the
// class "md" hold inline markdown. Converter.Preprocess replaces their content
// with rendered HTML:
//
//	conv, err := mdplugin.NewConverter(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc, err := mdplugin.ParseDocument(r)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := conv.Preprocess(doc); err != nil {
//	    log.Fatal(err)
//	}
//	doc.Render(w)
//
// The content is dedented first, so markdown may be indented to match the
// surrounding HTML. An element that fails to render keeps its content and the
// failure is logged; the other elements are still rendered.
package mdplugin
