// Copyright 2024 The Envelope Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/envelopekit/envelope"
	"github.com/envelopekit/envelope/validation"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

type book struct {
	ID        uuid.UUID    `json:"id"`
	Title     string       `json:"title"`
	Published civil.Date   `json:"published"`
	Language  language.Tag `json:"language"`
	Tags      []string     `json:"tags,omitempty"`
}

type stats struct {
	Books     int                  `json:"books"`
	Languages map[language.Tag]int `json:"languages"`
	Since     time.Time            `json:"since"`
}

type catalog struct {
	mu      sync.RWMutex
	books   []book
	started time.Time
}

func newCatalog() *catalog {
	return &catalog{
		started: time.Now().UTC(),
		books: []book{
			{
				ID:        uuid.MustParse("6f1c1c1e-8d5b-4c1b-9a51-0b0c5d1f0a01"),
				Title:     "The Go Programming Language",
				Published: civil.Date{Year: 2015, Month: time.October, Day: 26},
				Language:  language.English,
				Tags:      []string{"go", "programming"},
			},
			{
				ID:        uuid.MustParse("6f1c1c1e-8d5b-4c1b-9a51-0b0c5d1f0a02"),
				Title:     "Programmieren in Go",
				Published: civil.Date{Year: 2019, Month: time.March, Day: 1},
				Language:  language.German,
			},
		},
	}
}

func (c *catalog) list(page envelope.PageRequest) envelope.ContinuousList[book] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	start := 0
	if page.Cursor != "" {
		for i, b := range c.books {
			if b.ID.String() == page.Cursor {
				start = i + 1
				break
			}
		}
	}
	end := min(start+page.Fetch(), len(c.books))
	rows := make([]book, end-start)
	copy(rows, c.books[start:end])
	return envelope.NewContinuousList(rows, page.Limit, func(b book) string {
		return b.ID.String()
	})
}

func (c *catalog) get(rawID string) envelope.Either[envelope.Error, envelope.Data[book]] {
	notFound := func(err validation.Error) envelope.Either[envelope.Error, envelope.Data[book]] {
		return envelope.Left[envelope.Error, envelope.Data[book]](envelope.NewError(err))
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return notFound(validation.NewField("id", "must be a UUID", rawID))
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.books {
		if b.ID == id {
			return envelope.Right[envelope.Error](envelope.NewData(b))
		}
	}
	return notFound(validation.NewField("id", "no such book", id.String()))
}

func (c *catalog) add(title, published string) (envelope.Data[book], error) {
	var errs validation.Errors
	title = strings.TrimSpace(title)
	if title == "" {
		errs = append(errs, validation.NewField("title", "is required", nil))
	}
	date, err := civil.ParseDate(published)
	if err != nil {
		errs = append(errs, validation.NewField("published", "must be a YYYY-MM-DD date", published))
	}
	if err := errs.Err(); err != nil {
		return envelope.Data[book]{}, err
	}
	b := book{
		ID:        uuid.New(),
		Title:     title,
		Published: date,
		Language:  language.Und,
	}
	c.mu.Lock()
	c.books = append(c.books, b)
	c.mu.Unlock()
	return envelope.NewData(b), nil
}

func (c *catalog) stats() stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	languages := make(map[language.Tag]int)
	for _, b := range c.books {
		languages[b.Language]++
	}
	return stats{Books: len(c.books), Languages: languages, Since: c.started}
}
