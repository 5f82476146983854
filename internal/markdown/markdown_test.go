package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImages(t *testing.T) {
	body := []byte("# Results\n\n![Flow](figures/flow.png){#fig:flow}\n\n" +
		"Text with [a link](other.md).\n\n![Again](figures/flow.png)\n\n![Chart](figures/chart.pdf \"title\")\n")

	require.Equal(t, []string{"figures/flow.png", "figures/chart.pdf"}, Images(body))
}

func TestImages_IgnoresDirectives(t *testing.T) {
	require.Empty(t, Images([]byte("![[methods]]\n")))
}

func TestTitle(t *testing.T) {
	require.Equal(t, "Supporting Information", Title([]byte("Intro para\n\n## Sub\n\n# Supporting Information\n")))
	require.Equal(t, "Methods and data", Title([]byte("# Methods and `data`\n")))
	require.Empty(t, Title([]byte("## Only level two\n")))
}
