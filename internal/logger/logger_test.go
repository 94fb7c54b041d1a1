// Copyright 2021 NetEase Inc.
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

package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileLogger(t *testing.T, severity, format string) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	l := New(FileConfig{FilePath: path, Severity: severity, Format: format})
	return l, path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestNew_WritesJSONWithSeverityField(t *testing.T) {
	l, path := newFileLogger(t, SeverityInfo, "json")
	l.Infof("mounted %s", "vol1")

	content := readFile(t, path)
	assert.Contains(t, content, `"severity":"INFO"`)
	assert.Contains(t, content, "mounted vol1")
}

func TestNew_WritesTextFormat(t *testing.T) {
	l, path := newFileLogger(t, SeverityInfo, "text")
	l.Errorf("mount failed: %v", assert.AnError)

	content := readFile(t, path)
	assert.Contains(t, content, "severity=ERROR")
	assert.Contains(t, content, "mount failed")
}

func TestNew_SeverityFiltersBelowThreshold(t *testing.T) {
	l, path := newFileLogger(t, SeverityWarn, "json")
	l.Infof("should not appear")
	l.Warnf("should appear")

	content := readFile(t, path)
	assert.NotContains(t, content, "should not appear")
	assert.Contains(t, content, "should appear")
}

func TestLogger_SetLevel_ChangesFilteringInPlace(t *testing.T) {
	l, path := newFileLogger(t, SeverityError, "json")
	l.Infof("first: filtered")

	l.SetLevel(SeverityInfo)
	l.Infof("second: visible")

	content := readFile(t, path)
	assert.NotContains(t, content, "first: filtered")
	assert.Contains(t, content, "second: visible")
}

func TestDefault_DoesNotPanicWithoutConfig(t *testing.T) {
	l := Default()
	assert.NotPanics(t, func() { l.Infof("hello %s", "world") })
}
