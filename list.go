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

package envelope

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/envelopekit/envelope/validation"
)

const (
	defaultPageLimit = 200
	maxPageLimit     = 2000
)

// A Cursor describes where a page sits in a continuous list. The zero value
// is the last page.
type Cursor struct {
	// HasMore reports whether another page follows.
	HasMore bool
	// Next is the opaque token that fetches the following page. It's empty
	// on the last page.
	Next string
	// Limit is the page size the items were fetched with, if known.
	Limit int
}

// ContinuousList is one page of an ordered collection, plus the cursor that
// continues it.
type ContinuousList[T any] struct {
	Items  []T
	Cursor Cursor
}

// NewContinuousList builds a page from the result of a query that asked for
// limit+1 rows (see PageRequest.Fetch). If the extra row came back it's
// dropped and HasMore is set; next derives the cursor from the last item
// kept. A non-positive limit keeps every item and reports no further page.
func NewContinuousList[T any](items []T, limit int, next func(T) string) ContinuousList[T] {
	if limit <= 0 || len(items) <= limit {
		return ContinuousList[T]{Items: items, Cursor: Cursor{Limit: max(limit, 0)}}
	}
	page := items[:limit]
	cursor := Cursor{HasMore: true, Limit: limit}
	if next != nil {
		cursor.Next = next(page[len(page)-1])
	}
	return ContinuousList[T]{Items: page, Cursor: cursor}
}

// A PageRequest is a client's request for one page of a continuous list.
type PageRequest struct {
	Cursor string
	Limit  int
}

// Fetch is the number of rows to query for: one more than the limit, so
// NewContinuousList can tell whether another page exists.
func (p PageRequest) Fetch() int {
	return p.Limit + 1
}

// PageRequestFromQuery reads the cursor and limit query parameters. A
// missing limit uses defaultLimit and larger limits are clamped to
// maxLimit; non-positive arguments fall back to 200 and 2000. A limit that
// isn't a positive integer is reported as a validation.Error, so handlers
// can return it and answer 422.
func PageRequestFromQuery(query url.Values, defaultLimit, maxLimit int) (PageRequest, error) {
	if defaultLimit <= 0 {
		defaultLimit = defaultPageLimit
	}
	if maxLimit <= 0 {
		maxLimit = maxPageLimit
	}
	request := PageRequest{
		Cursor: strings.TrimSpace(query.Get("cursor")),
		Limit:  defaultLimit,
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return PageRequest{}, validation.NewField("limit", "must be a positive integer", raw)
		}
		request.Limit = limit
	}
	if request.Limit > maxLimit {
		request.Limit = maxLimit
	}
	return request, nil
}
