package pipeline

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/jhillyerd/enmime"
)

type Format string

const (
	FormatDOCX Format = "docx"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

var extensionFormats = map[string]Format{
	".docx": FormatDOCX,
	".xlsx": FormatXLSX,
	".xlsm": FormatXLSX,
	".pdf":  FormatPDF,
	".html": FormatHTML,
	".htm":  FormatHTML,
	".txt":  FormatText,
}

var mimeFormats = map[string]Format{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       FormatXLSX,
	"application/pdf": FormatPDF,
	"text/html":       FormatHTML,
	"text/plain":      FormatText,
}

// DetectFormat trusts the file extension first and the declared content
// type second.
func DetectFormat(name, contentType string) (Format, bool) {
	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(strings.TrimSpace(name)))]; ok {
		return f, true
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	f, ok := mimeFormats[ct]
	return f, ok
}

type Attachment struct {
	Name        string
	ContentType string
	Format      Format
	Content     []byte
}

type Message struct {
	Subject     string
	From        string
	Text        string
	HTML        string
	Attachments []Attachment
	// Ignored lists attachment names with no supported format.
	Ignored []string
}

// ReadMessage splits a raw email into body parts and the attachments we
// can extract from. Inline parts with a filename count as attachments.
func ReadMessage(raw []byte) (Message, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		Subject: env.GetHeader("Subject"),
		From:    env.GetHeader("From"),
		Text:    env.Text,
		HTML:    env.HTML,
	}

	parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	for _, part := range parts {
		name := strings.TrimSpace(part.FileName)
		format, ok := DetectFormat(name, part.ContentType)
		if !ok || len(part.Content) == 0 {
			if name != "" {
				msg.Ignored = append(msg.Ignored, name)
			}
			continue
		}
		if name == "" {
			name = "attachment." + string(format)
		}
		msg.Attachments = append(msg.Attachments, Attachment{
			Name:        name,
			ContentType: part.ContentType,
			Format:      format,
			Content:     part.Content,
		})
	}
	return msg, nil
}
