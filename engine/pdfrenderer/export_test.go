package pdfrenderer

var WriteTestPDF = writeTestPDF
