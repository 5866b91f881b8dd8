// Package scraper fetches event listings from the configured sources and
// extracts candidate events from them.
//
// Each source is a row in a declarative table (see DefaultSources) naming its
// URL, venue, extraction strategy and dedup identity rule. Three strategies
// exist: a stadium page laid out as a grid, ticketing-platform pages built from
// repeating ticket cards, and a parking operator's JSON feed.
package scraper
