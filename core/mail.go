package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/speakmate/speakmate/fs"
)

const emailTemplatesDir = "templates/email"

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}

	// EmailTemplates renders messages from the embedded email templates.
	// Templates are parsed on first use.
	EmailTemplates struct {
		appName         string
		frontendBaseURL string
		strict          bool
		fsys            fs.FS

		init      sync.Once
		templates tmplCache
		err       error
	}
)

func NewEmailTemplates(conf *Config) *EmailTemplates {
	return &EmailTemplates{
		appName:         conf.AppName,
		frontendBaseURL: conf.Mail.FrontendBaseURL,
		strict:          conf.Debug || conf.TestMode,
		fsys:            appfs.FS,
	}
}

func (t *EmailTemplates) contextData(m *EmailMessage) ContextData {
	return ContextData{
		AppName:         t.appName,
		FrontendBaseURL: t.frontendBaseURL,
		Data:            m.TemplateData,
	}
}

func (t *EmailTemplates) get(name, ext string) (interface{}, bool) {
	entry, ok := t.templates[name]
	if !ok {
		return nil, ok
	}
	tmpl, ok := entry[ext]
	return tmpl, ok
}

func (t *EmailTemplates) renderText(m *EmailMessage) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	entry, ok := t.get(m.TemplateName, ".txt")
	if !ok {
		return nil
	}
	tmpl, ok := entry.(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, t.contextData(m)); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (t *EmailTemplates) renderHTML(m *EmailMessage) error {
	if m.TemplateName == "" {
		return nil
	}

	entry, ok := t.get(m.TemplateName, ".gohtml")
	if !ok {
		return nil
	}
	tmpl, ok := entry.(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, t.contextData(m)); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render fills the text and HTML contents of `m`.
func (t *EmailTemplates) Render(m *EmailMessage) error {
	if m.TemplateName != "" {
		t.init.Do(t.parse)
		if t.err != nil {
			return t.err
		}
		if _, ok := t.templates[m.TemplateName]; !ok {
			return errors.Errorf("unknown email template %q", m.TemplateName)
		}
	}
	if err := t.renderText(m); err != nil {
		return errors.Wrap(err, "rendering text email")
	}
	return errors.Wrap(t.renderHTML(m), "rendering html email")
}

func (t *EmailTemplates) parse() {
	t.templates = make(tmplCache)

	fps, err := fs.Glob(t.fsys, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		t.err = errors.Wrap(err, "listing email templates")
		return
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := t.templates[name]
		if !ok {
			entry = make(tmplCacheEntry)
			t.templates[name] = entry
		}
		base := path.Join(emailTemplatesDir, "_base"+ext)
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(t.fsys, base, fp)
			if err != nil {
				t.err = errors.Wrapf(err, "parsing %s", fname)
				return
			}
			if t.strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry[ext] = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFS(t.fsys, base, fp)
			if err != nil {
				t.err = errors.Wrapf(err, "parsing %s", fname)
				return
			}
			if t.strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry[ext] = tmpl
		}
	}
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }
