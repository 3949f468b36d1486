package extract

import (
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// ToMarkdown converts article HTML into Markdown. Review files are written
// in Markdown so drafts can be read and edited before publication.
func ToMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, nil)

	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	return markdown, nil
}
