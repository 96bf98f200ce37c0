// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package newsagent

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nlpodyssey/news-search-agent/util/transforms"
)

const maxTopicSlugLen = 48

// ReportFilename returns the file name of the report on topic written at t.
func ReportFilename(topic string, t time.Time) string {
	slug := cmp.Or(transforms.Slug(topic, maxTopicSlugLen), "topic")
	return fmt.Sprintf("news_report_%s_%s.md", slug, t.UTC().Format("20060102T150405Z"))
}

// WriteReport writes the Markdown of r into dir and returns the file path.
func WriteReport(dir string, r *Report, now time.Time) (string, error) {
	if r.Markdown == "" {
		return "", errors.New("report has no content")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, ReportFilename(r.Topic, now))
	if err := os.WriteFile(path, []byte(r.Markdown), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
