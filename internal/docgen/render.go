// Package docgen renders the expediente document set from docx templates.
package docgen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nguyenthenguyen/docx"
)

// DocumentNames is the fixed ordered list of templates per service folder.
// A folder may ship only a subset; missing files are skipped, not errors.
var DocumentNames = []string{
	"Acta_de_entrega_recepcion.docx",
	"Bitacora_de_avances_de_obra.docx",
	"Contrato_de_prestación_de_servicios.docx",
	"Cotizacion_de_servicios.docx",
	"Narrativas_de_materialidad.docx",
	"Orden_de_servicio.docx",
}

// imagePlaceholders are the media entries a template may carry for the
// user image. Replacing the entry bytes keeps the display box the template
// author set for the placeholder.
var imagePlaceholders = []string{
	"word/media/image1.png",
	"word/media/image1.jpeg",
	"word/media/image1.jpg",
}

// RenderedDocument is one rendered template, ready for archiving
type RenderedDocument struct {
	Name  string
	Bytes []byte
}

// Renderer substitutes form fields into the template set of one folder
type Renderer struct {
	TemplatesDir string
	Now          func() time.Time
}

// NewRenderer creates a renderer over the given templates directory
func NewRenderer(templatesDir string) *Renderer {
	return &Renderer{
		TemplatesDir: templatesDir,
		Now:          time.Now,
	}
}

// RenderAll renders every template present in folder, in DocumentNames order.
// Fields are substituted into {campo} markers; newline characters in values
// become document line breaks. When imagePath is set the template's image
// placeholder media is replaced with the file at that path. Any render
// failure aborts the whole set.
func (r *Renderer) RenderAll(folder string, fields map[string]string, imagePath string) ([]RenderedDocument, error) {
	var documents []RenderedDocument

	for _, docName := range DocumentNames {
		templatePath := filepath.Join(r.TemplatesDir, folder, docName)
		if _, err := os.Stat(templatePath); os.IsNotExist(err) {
			continue
		}

		rendered, err := r.renderOne(templatePath, fields, imagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", docName, err)
		}
		documents = append(documents, RenderedDocument{
			Name:  "Documento_" + docName,
			Bytes: rendered,
		})
	}

	return documents, nil
}

func (r *Renderer) renderOne(templatePath string, fields map[string]string, imagePath string) ([]byte, error) {
	template, err := docx.ReadDocxFile(templatePath)
	if err != nil {
		return nil, err
	}
	defer template.Close()

	doc := template.Editable()
	for key, value := range fields {
		if err := doc.Replace("{"+key+"}", value, -1); err != nil {
			return nil, err
		}
	}
	if err := doc.Replace("{fecha_generacion}", fechaGeneracion(r.Now()), -1); err != nil {
		return nil, err
	}

	if imagePath != "" {
		replaceImagePlaceholder(doc, imagePath)
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// replaceImagePlaceholder swaps the placeholder media for the uploaded image.
// Templates without an image placeholder are left untouched.
func replaceImagePlaceholder(doc *docx.Docx, imagePath string) {
	if doc.ImagesLen() == 0 {
		return
	}
	for _, placeholder := range imagePlaceholders {
		if err := doc.ReplaceImage(placeholder, imagePath); err == nil {
			return
		}
	}
}

// fechaGeneracion formats the generation date the way the document set
// has always shown it: day/month/year without leading zeros.
func fechaGeneracion(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}
