package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
)

const (
	organizationSelector = `h1, h2, h3, .company-name, .business-name, [itemprop="name"], .org, .organization`
	personSelector       = `[itemprop="author"], .author, .name, .contact-name`

	maxOrganizations = 10
)

// OrganizationNames returns heading and business-name texts from document,
// deduplicated, at most ten.
func OrganizationNames(document string) []string {
	names := selectTexts(document, organizationSelector, 3, 100)
	if len(names) > maxOrganizations {
		names = names[:maxOrganizations]
	}
	return names
}

// PersonNames returns author and contact-name texts from document, deduplicated.
func PersonNames(document string) []string {
	return selectTexts(document, personSelector, 3, 50)
}

// All runs every extractor over document.
func All(document string) lead.Candidates {
	return lead.Candidates{
		Emails:        Emails(document),
		Phones:        Phones(document),
		Organizations: OrganizationNames(document),
		People:        PersonNames(document),
	}
}

// selectTexts collects the trimmed text of every element matching selector
// whose length lies strictly between minLen and maxLen.
func selectTexts(document, selector string, minLen, maxLen int) []string {
	if strings.TrimSpace(document) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil
	}
	var texts []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		n := utf8.RuneCountInString(text)
		if n > minLen && n < maxLen {
			texts = append(texts, text)
		}
	})
	return unique(texts)
}
