package markdown_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zviryatko/github-to-azure-migration/internal/markdown"
)

func TestToHTMLRendersBasicMarkdown(testInstance *testing.T) {
	testInstance.Parallel()

	converter := markdown.NewConverter()

	renderedHTML := converter.ToHTML("some **bold** text")

	require.Contains(testInstance, renderedHTML, "<strong>bold</strong>")
}

func TestToHTMLRendersStrikethroughExtension(testInstance *testing.T) {
	testInstance.Parallel()

	converter := markdown.NewConverter()

	renderedHTML := converter.ToHTML("~~dropped~~")

	require.Contains(testInstance, renderedHTML, "<del>dropped</del>")
}

func TestToHTMLKeepsEmptyBodyEmpty(testInstance *testing.T) {
	testInstance.Parallel()

	converter := markdown.NewConverter()

	require.Equal(testInstance, "", converter.ToHTML(""))
}
