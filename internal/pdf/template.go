package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"portfolio/internal/database"
	"portfolio/internal/portfolio"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = bluemonday.UGCPolicy()
)

var sectionTitles = map[portfolio.ResumeCategory]string{
	portfolio.CategoryExperience: "Experience",
	portfolio.CategoryEducation:  "Education",
	portfolio.CategorySkills:     "Skills",
	portfolio.CategoryAwards:     "Awards",
}

// Document 是简历 HTML 模板的数据。
type Document struct {
	Name     string
	Headline string
	Email    string
	Location string
	Links    []string
	Sections []Section
}

// Section 是一个非空分类。
type Section struct {
	Title string
	Items []Item
}

// Item 是渲染后的单条简历条目。
type Item struct {
	Title       string
	Subtitle    string
	Location    string
	Period      string
	Description template.HTML
}

// MarkdownToHTML converts a Markdown description and strips anything outside the UGC policy.
func MarkdownToHTML(source string) (template.HTML, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}

func period(item database.ResumeItem) string {
	start := ""
	if item.StartDate != nil {
		start = *item.StartDate
	}
	end := ""
	switch {
	case item.IsCurrent:
		end = "Present"
	case item.EndDate != nil:
		end = *item.EndDate
	}
	switch {
	case start != "" && end != "":
		return start + " - " + end
	case start != "":
		return start
	default:
		return end
	}
}

// BuildDocument 组装模板数据，空分类不输出。
func BuildDocument(settings database.SiteSettings, sections []portfolio.ResumeSection) (Document, error) {
	doc := Document{
		Name:     settings.HeroTitle,
		Headline: settings.HeroSubtitle,
		Email:    settings.PrimaryEmail,
		Location: settings.Location,
	}
	for _, link := range []string{settings.LinkedinURL, settings.GithubURL, settings.TwitterURL, settings.InstagramURL} {
		if strings.TrimSpace(link) != "" {
			doc.Links = append(doc.Links, link)
		}
	}

	for _, section := range sections {
		if len(section.Items) == 0 {
			continue
		}
		out := Section{Title: sectionTitles[section.Category]}
		for _, item := range section.Items {
			desc, err := MarkdownToHTML(item.Description)
			if err != nil {
				return Document{}, fmt.Errorf("item %s: %w", item.ID, err)
			}
			out.Items = append(out.Items, Item{
				Title:       item.Title,
				Subtitle:    item.Subtitle,
				Location:    item.Location,
				Period:      period(item),
				Description: desc,
			})
		}
		doc.Sections = append(doc.Sections, out)
	}
	return doc, nil
}

// RenderHTML 执行简历模板。
func RenderHTML(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := resumeTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("execute resume template: %w", err)
	}
	return buf.String(), nil
}

var resumeTemplate = template.Must(template.New("resume").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        @page { size: A4; margin: 18mm 16mm; }
        body { font-family: 'Helvetica Neue', Arial, sans-serif; font-size: 10.5pt; color: #1f2933; margin: 0; }
        header { border-bottom: 2px solid #1f2933; padding-bottom: 8px; margin-bottom: 16px; }
        header h1 { font-size: 22pt; margin: 0; }
        header .headline { font-size: 12pt; color: #52606d; margin: 4px 0; }
        header .contact { font-size: 9pt; color: #52606d; }
        section { margin-bottom: 14px; }
        section h2 { font-size: 12pt; text-transform: uppercase; letter-spacing: 1px; margin: 0 0 6px; }
        .item { margin-bottom: 10px; page-break-inside: avoid; }
        .item .row { display: flex; justify-content: space-between; }
        .item .title { font-weight: 600; }
        .item .meta { color: #52606d; font-size: 9pt; }
        .item .desc p { margin: 4px 0; }
    </style>
</head>
<body>
    <header>
        <h1>{{.Name}}</h1>
        {{if .Headline}}<div class="headline">{{.Headline}}</div>{{end}}
        <div class="contact">
            {{if .Email}}<span>{{.Email}}</span>{{end}}
            {{if .Location}}<span> · {{.Location}}</span>{{end}}
            {{range .Links}}<span> · {{.}}</span>{{end}}
        </div>
    </header>
    {{range .Sections}}
    <section>
        <h2>{{.Title}}</h2>
        {{range .Items}}
        <div class="item">
            <div class="row">
                <span class="title">{{.Title}}</span>
                {{if .Period}}<span class="meta">{{.Period}}</span>{{end}}
            </div>
            {{if or .Subtitle .Location}}<div class="meta">{{.Subtitle}}{{if and .Subtitle .Location}}, {{end}}{{.Location}}</div>{{end}}
            {{if .Description}}<div class="desc">{{.Description}}</div>{{end}}
        </div>
        {{end}}
    </section>
    {{end}}
</body>
</html>
`))
