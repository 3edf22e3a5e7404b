package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*
var templateFS embed.FS

// Rendered is one email ready to send.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Render executes templates/<name>_subject.txt, <name>.html and <name>.txt with data.
func Render(name string, data interface{}) (*Rendered, error) {
	subject, err := renderText(name+"_subject.txt", data)
	if err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	html, err := renderHTML(name+".html", data)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	text, err := renderText(name+".txt", data)
	if err != nil {
		return nil, fmt.Errorf("render text: %w", err)
	}
	return &Rendered{Subject: strings.TrimSpace(subject), HTML: html, Text: text}, nil
}

func renderText(file string, data interface{}) (string, error) {
	t, err := texttemplate.ParseFS(templateFS, "templates/"+file)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderHTML(file string, data interface{}) (string, error) {
	t, err := htmltemplate.ParseFS(templateFS, "templates/"+file)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
