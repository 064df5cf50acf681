package cmd

import (
	"bytes"
	"text/template"

	"github.com/docker/go-units"

	"github.com/starworks/depot/pkg/model"
)

var templateFuncs = template.FuncMap{
	"humanSize": func(sz uint64) string {
		return units.HumanSize(float64(sz))
	},
}

// one line per entry, for listings
var entryLineTemplate = template.Must(template.New("entry line").
	Funcs(templateFuncs).
	Parse(`{{.Key}} , {{.Kind}} , {{.Name}}{{with .Fingerprint}} , {{printf "%.16s" .}}{{end}}`))

// full record, for depot info
var entryInfoTemplate = template.Must(template.New("entry info").
	Funcs(templateFuncs).
	Parse(`Key:         {{.Entry.Key}}
Name:        {{.Entry.Name}}
Kind:        {{.Entry.Kind}}
{{- with .Entry.ParentKey}}
Parent:      {{.}}
{{- end}}
Created:     {{.Entry.CreatedAt.Format "2006-01-02 15:04:05 MST"}} by {{.Entry.CreatedBy}}
{{- if .Entry.IsFile}}
Fingerprint: {{.Record.Fingerprint}}
Size:        {{humanSize .Record.Size}} ({{.Record.Size}} bytes)
{{- with .Record.MimeType}}
Mime type:   {{.}}
{{- end}}
{{- end}}`))

func printEntryLine(entry model.TreeEntry) {
	var buf bytes.Buffer
	if err := entryLineTemplate.Execute(&buf, entry); err != nil {
		wrapFatalln("executing template", err)
		return
	}
	infoLogger.Println(buf.String())
}

func printEntryInfo(entry model.TreeEntry, rec model.ContentRecord) {
	var buf bytes.Buffer
	data := struct {
		Entry  model.TreeEntry
		Record model.ContentRecord
	}{Entry: entry, Record: rec}
	if err := entryInfoTemplate.Execute(&buf, data); err != nil {
		wrapFatalln("executing template", err)
		return
	}
	infoLogger.Println(buf.String())
}
