// internal/care/record.go
package care

import "strings"

// Column positions of the care feed. Every record carries these 19 fields.
const (
	ColSlug = iota
	ColPageTitle
	ColIntroHeading
	ColIntroText
	ColPrimaryCTAText
	ColPrimaryCTALink
	ColSecondaryCTAText
	ColSecondaryCTALink
	ColBenefitIcon
	ColBenefitLabel
	ColOverlayImage
	ColOverlayHeading
	ColOverlayText
	ColFAQQuestion
	ColFAQAnswer
	ColBottomHeading
	ColBottomText
	ColBottomButtonText
	ColBottomButtonLink

	NumColumns
)

// Record is one feed row with its positional fields named.
type Record struct {
	Slug             string `yaml:"slug"`
	PageTitle        string `yaml:"page_title,omitempty"`
	IntroHeading     string `yaml:"intro_heading,omitempty"`
	IntroText        string `yaml:"intro_text,omitempty"`
	PrimaryCTAText   string `yaml:"primary_cta_text,omitempty"`
	PrimaryCTALink   string `yaml:"primary_cta_link,omitempty"`
	SecondaryCTAText string `yaml:"secondary_cta_text,omitempty"`
	SecondaryCTALink string `yaml:"secondary_cta_link,omitempty"`
	BenefitIcon      string `yaml:"benefit_icon,omitempty"`
	BenefitLabel     string `yaml:"benefit_label,omitempty"`
	OverlayImage     string `yaml:"overlay_image,omitempty"`
	OverlayHeading   string `yaml:"overlay_heading,omitempty"`
	OverlayText      string `yaml:"overlay_text,omitempty"`
	FAQQuestion      string `yaml:"faq_question,omitempty"`
	FAQAnswer        string `yaml:"faq_answer,omitempty"`
	BottomHeading    string `yaml:"bottom_heading,omitempty"`
	BottomText       string `yaml:"bottom_text,omitempty"`
	BottomButtonText string `yaml:"bottom_button_text,omitempty"`
	BottomButtonLink string `yaml:"bottom_button_link,omitempty"`
}

// RecordFromRow maps a tokenized row onto a Record. Missing columns are empty
// and columns past the last known one are ignored.
func RecordFromRow(row []string) Record {
	col := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Record{
		Slug:             col(ColSlug),
		PageTitle:        col(ColPageTitle),
		IntroHeading:     col(ColIntroHeading),
		IntroText:        col(ColIntroText),
		PrimaryCTAText:   col(ColPrimaryCTAText),
		PrimaryCTALink:   col(ColPrimaryCTALink),
		SecondaryCTAText: col(ColSecondaryCTAText),
		SecondaryCTALink: col(ColSecondaryCTALink),
		BenefitIcon:      col(ColBenefitIcon),
		BenefitLabel:     col(ColBenefitLabel),
		OverlayImage:     col(ColOverlayImage),
		OverlayHeading:   col(ColOverlayHeading),
		OverlayText:      col(ColOverlayText),
		FAQQuestion:      col(ColFAQQuestion),
		FAQAnswer:        col(ColFAQAnswer),
		BottomHeading:    col(ColBottomHeading),
		BottomText:       col(ColBottomText),
		BottomButtonText: col(ColBottomButtonText),
		BottomButtonLink: col(ColBottomButtonLink),
	}
}

// Benefit is one card of the benefits grid.
type Benefit struct {
	Icon  string
	Label string
}

// FAQ is one question and answer pair.
type FAQ struct {
	Question string
	Answer   string
}

// Overlay is the optional image-backed callout.
type Overlay struct {
	Image   string
	Heading string
	Text    string
}

// BottomCTA is the optional closing call to action.
type BottomCTA struct {
	Heading    string
	Text       string
	ButtonText string
	ButtonLink string
}

// CTA is a button label and its target.
type CTA struct {
	Text string
	Link string
}

// Page is everything a care page renders, aggregated from its records.
type Page struct {
	Slug         string
	Title        string
	IntroHeading string
	IntroText    string
	Primary      CTA
	Secondary    CTA
	Benefits     []Benefit
	Overlay      *Overlay
	FAQs         []FAQ
	Bottom       *BottomCTA
}

// NewPage aggregates matched records. Single-valued sections come from the
// first record; benefits and FAQs collect every record that fills them, in
// feed order. records must not be empty.
func NewPage(records []Record) Page {
	first := records[0]
	p := Page{
		Slug:         first.Slug,
		Title:        first.PageTitle,
		IntroHeading: first.IntroHeading,
		IntroText:    first.IntroText,
		Primary:      CTA{Text: first.PrimaryCTAText, Link: first.PrimaryCTALink},
		Secondary:    CTA{Text: first.SecondaryCTAText, Link: first.SecondaryCTALink},
	}

	for _, r := range records {
		if strings.TrimSpace(r.BenefitLabel) != "" {
			p.Benefits = append(p.Benefits, Benefit{Icon: r.BenefitIcon, Label: r.BenefitLabel})
		}
		if strings.TrimSpace(r.FAQQuestion) != "" {
			p.FAQs = append(p.FAQs, FAQ{Question: r.FAQQuestion, Answer: r.FAQAnswer})
		}
	}

	if first.OverlayHeading != "" {
		p.Overlay = &Overlay{Image: first.OverlayImage, Heading: first.OverlayHeading, Text: first.OverlayText}
	}
	if first.BottomHeading != "" {
		p.Bottom = &BottomCTA{
			Heading:    first.BottomHeading,
			Text:       first.BottomText,
			ButtonText: first.BottomButtonText,
			ButtonLink: first.BottomButtonLink,
		}
	}
	return p
}
