package scoring

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// HeuristicQuality returns the default quality proxy. It scores the
// structural shape of a response relative to the request: non-trivial
// length, multi-line structure, and keyword coverage of the prompt.
// It is a proxy, not a judgment of correctness.
func HeuristicQuality() QualityFunc {
	return func(req *models.Request, resp *models.Response) float64 {
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return 0
		}

		// Length: saturates at ~400 characters.
		length := float64(len(text)) / 400
		if length > 1 {
			length = 1
		}

		// Structure: reward multi-line or multi-sentence answers.
		structure := 0.0
		if strings.Count(text, "\n") > 0 {
			structure += 0.5
		}
		if strings.Count(text, ".") > 1 {
			structure += 0.5
		}

		// Coverage: fraction of prompt keywords echoed in the answer.
		coverage := keywordCoverage(req.Prompt, text)

		return 0.4*length + 0.3*structure + 0.3*coverage
	}
}

// keywordCoverage returns the fraction of significant prompt words that
// appear in the response.
func keywordCoverage(prompt, response string) float64 {
	lower := strings.ToLower(response)
	var total, hit int
	for _, w := range strings.Fields(strings.ToLower(prompt)) {
		w = strings.Trim(w, ".,:;?!\"'()")
		if len(w) < 4 {
			continue
		}
		total++
		if strings.Contains(lower, w) {
			hit++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(hit) / float64(total)
}

// NewExprQuality compiles a user-configured quality expression into a
// QualityFunc. The expression is evaluated per response with the
// variables: text, chars, lines, words, input_tokens, output_tokens.
// Results are clamped to [0,1].
func NewExprQuality(src string) (QualityFunc, error) {
	// Compile against an env declaring every variable the expression
	// may reference, so typos fail at config time rather than scoring
	// every response as zero.
	program, err := expr.Compile(src, expr.Env(exprEnv{
		"text":          "",
		"chars":         float64(0),
		"lines":         float64(0),
		"words":         float64(0),
		"input_tokens":  float64(0),
		"output_tokens": float64(0),
	}), expr.AsFloat64())
	if err != nil {
		return nil, fmt.Errorf("compile quality expression: %w", err)
	}
	return exprQuality(program), nil
}

type exprEnv map[string]interface{}

func exprQuality(program *vm.Program) QualityFunc {
	return func(req *models.Request, resp *models.Response) float64 {
		env := exprEnv{
			"text":          resp.Text,
			"chars":         float64(len(resp.Text)),
			"lines":         float64(strings.Count(resp.Text, "\n") + 1),
			"words":         float64(len(strings.Fields(resp.Text))),
			"input_tokens":  float64(resp.InputTokens),
			"output_tokens": float64(resp.OutputTokens),
		}

		out, err := expr.Run(program, env)
		if err != nil {
			return 0
		}
		v, ok := out.(float64)
		if !ok {
			return 0
		}
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
}
