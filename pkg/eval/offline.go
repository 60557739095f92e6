package eval

import (
	"context"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/modelkit/toolcall/pkg/registry"
	"github.com/modelkit/toolcall/pkg/tool"
)

// Fixture represents one dispatch evaluation case. Arguments is a
// text/template rendered with Vars before dispatch.
type Fixture struct {
	Name      string         `json:"name"`
	Tool      string         `json:"tool"`
	Arguments string         `json:"arguments"`
	Vars      map[string]any `json:"vars"`
	Expect    Expectation    `json:"expect"`
}

type Expectation struct {
	Contains    []string `json:"contains,omitempty"`
	NotContains []string `json:"not_contains,omitempty"`
}

// EvaluateDispatchFixtures loads fixtures from an fs.FS directory (json
// files), dispatches each against d and evaluates basic expectations on the
// result content. Returns score [0,1].
func EvaluateDispatchFixtures(ctx context.Context, d *registry.Dispatcher, fsys fs.FS, dir string) (score float64, total int, passed int, details []string, err error) {
	fixtures, err := loadFixtures(fsys, dir)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	total = len(fixtures)
	if total == 0 {
		return 1, 0, 0, nil, nil
	}
	for _, fx := range fixtures {
		args, rerr := renderTemplate(fx.Arguments, fx.Vars)
		if rerr != nil {
			details = append(details, fx.Name+": render error: "+rerr.Error())
			continue
		}
		results, derr := d.Dispatch(ctx, []tool.Call{tool.NewCall(fx.Name, fx.Tool, args)})
		if derr != nil {
			details = append(details, fx.Name+": dispatch error: "+derr.Error())
			continue
		}
		out := results[0].Content
		ok := true
		for _, s := range fx.Expect.Contains {
			if !strings.Contains(out, s) {
				ok = false
				details = append(details, fx.Name+": missing contains: "+s)
			}
		}
		for _, s := range fx.Expect.NotContains {
			if strings.Contains(out, s) {
				ok = false
				details = append(details, fx.Name+": unexpected contains: "+s)
			}
		}
		if ok {
			passed++
		}
	}
	score = float64(passed) / float64(total)
	return score, total, passed, details, nil
}

func loadFixtures(fsys fs.FS, dir string) ([]Fixture, error) {
	var out []Fixture
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := fs.ReadFile(fsys, filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var fx Fixture
		if err := json.Unmarshal(b, &fx); err != nil {
			return nil, err
		}
		out = append(out, fx)
	}
	return out, nil
}

func renderTemplate(tpl string, vars map[string]any) (string, error) {
	t, err := template.New("args").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := t.Execute(&b, vars); err != nil {
		return "", err
	}
	return b.String(), nil
}
