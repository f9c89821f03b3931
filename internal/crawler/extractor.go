package crawler

import (
	"strings"

	"github.com/Rezanikmanesh-79/Karamoozi/helpers"
	"github.com/Rezanikmanesh-79/Karamoozi/internal/browser"
	"github.com/Rezanikmanesh-79/Karamoozi/logger"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
)

// Extractor turns the product containers of a loaded listing page into records.
// It never touches the network.
type Extractor struct {
	baseURL     string
	selectors   Selectors
	priceSuffix string
}

// NewExtractor creates an extractor resolving relative hrefs against baseURL
func NewExtractor(baseURL string, selectors Selectors, priceSuffix string) *Extractor {
	return &Extractor{
		baseURL:     baseURL,
		selectors:   selectors,
		priceSuffix: priceSuffix,
	}
}

// Extract returns one record per usable container in document order.
// Containers without a title anchor are skipped.
func (e *Extractor) Extract(containers []browser.Element, category string) []ProductRecord {
	log := logger.ForCrawler(category)

	records := make([]ProductRecord, 0, len(containers))
	for i, container := range containers {
		record, err := e.extractOne(container, category)
		if err != nil {
			log.Debug().Err(err).Int("position", i).Msg("Skipping product container")
			continue
		}
		records = append(records, record)
	}
	return records
}

func (e *Extractor) extractOne(container browser.Element, category string) (ProductRecord, error) {
	anchor, ok := container.Find(e.selectors.Title)
	if !ok {
		return ProductRecord{}, crawlerrors.NewExtraction(category, "title anchor not found")
	}

	title := strings.TrimSpace(anchor.Text())
	if title == "" {
		return ProductRecord{}, crawlerrors.NewExtraction(category, "empty title")
	}
	href, _ := anchor.Attribute("href")
	link := helpers.ResolveURL(e.baseURL, href)
	if link == "" {
		return ProductRecord{}, crawlerrors.NewExtraction(category, "empty link")
	}

	return ProductRecord{
		Title:    title,
		Link:     link,
		Price:    e.price(container),
		Image:    e.image(container),
		Category: category,
	}, nil
}

func (e *Extractor) price(container browser.Element) string {
	if e.selectors.Price == "" {
		return ""
	}
	tag, ok := container.Find(e.selectors.Price)
	if !ok {
		return ""
	}
	return CleanPrice(tag.Text(), e.priceSuffix)
}

func (e *Extractor) image(container browser.Element) string {
	if e.selectors.Image == "" {
		return ""
	}
	tag, ok := container.Find(e.selectors.Image)
	if !ok {
		return ""
	}
	src, _ := tag.Attribute("src")
	return helpers.ResolveURL(e.baseURL, src)
}

// CleanPrice strips the currency word and surrounding whitespace from a listing price
func CleanPrice(raw, suffix string) string {
	if suffix != "" {
		raw = strings.ReplaceAll(raw, suffix, "")
	}
	return strings.TrimSpace(raw)
}
