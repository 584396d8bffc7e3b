// Package heb provides the product-lookup capability for shopping-list
// lines. The offline connector generates grocery search links without any
// browser automation, the only mode this service needs.
package heb

import (
	"context"
	"fmt"
	"net/url"
)

const searchBaseURL = "https://www.heb.com/search?esc=true&q=%s"

// Product is the optional lookup result for one ingredient name.
type Product struct {
	Name  string `json:"name"`
	Price string `json:"price,omitempty"`
	Link  string `json:"link"`
}

// OfflineConnector produces search links for ingredients without scraping.
// Price is never populated in offline mode.
type OfflineConnector struct{}

// NewOfflineConnector creates an OfflineConnector.
func NewOfflineConnector() *OfflineConnector {
	return &OfflineConnector{}
}

// Lookup returns a product whose link is a store search URL for the item.
// It never fails and never returns price data.
func (c *OfflineConnector) Lookup(ctx context.Context, item string) (*Product, error) {
	return &Product{
		Name: item,
		Link: fmt.Sprintf(searchBaseURL, url.QueryEscape(item)),
	}, nil
}
