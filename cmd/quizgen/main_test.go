package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"sop-quiz/internal/config"
	"sop-quiz/internal/domain"
	"sop-quiz/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteQuiz(t *testing.T) {
	batch := &domain.QuizBatch{
		ID: "01HZX",
		Items: []domain.QuizItem{{
			Question:     "Which step comes first?",
			Options:      [domain.OptionCount]string{"Gown", "Wash hands", "Glove", "Enter"},
			CorrectIndex: 1,
			Reasons:      [domain.OptionCount]string{"r1", "r2", "r3", "r4"},
		}},
	}

	var out bytes.Buffer
	require.NoError(t, writeQuiz(&out, batch))

	assert.Contains(t, out.String(), "Quiz 01HZX (1 questions)")
	assert.Contains(t, out.String(), "1. Which step comes first?")
	assert.Contains(t, out.String(), "  * B) Wash hands\n       r2\n")
	assert.Contains(t, out.String(), "    A) Gown\n")
}

func TestExportFormat(t *testing.T) {
	f, err := exportFormat("")
	require.NoError(t, err)
	assert.Empty(t, f)

	f, err = exportFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, service.ExportXLSX, f)

	_, err = exportFormat("pdf")
	assert.Error(t, err)
}

func TestNewFlagSet(t *testing.T) {
	var opts options
	fs := newFlagSet(&opts)
	require.NoError(t, fs.Parse([]string{"-n", "3", "--fresh", "-e", "docx", "--llm.model", "llama3", "sop.pdf"}))

	assert.Equal(t, "3", opts.count)
	assert.True(t, opts.fresh)
	assert.Equal(t, "docx", opts.export)
	assert.Equal(t, []string{"sop.pdf"}, fs.Args())
	model, err := fs.GetString("llm.model")
	require.NoError(t, err)
	assert.Equal(t, "llama3", model)
}

func TestRun_RejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o600))

	err := run(context.Background(), &config.Config{}, options{input: path}, &bytes.Buffer{})
	assert.True(t, domain.HasCode(err, domain.CodeUnsupportedDocument))
}
