package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/lindenmaker/internal/logging"
	"github.com/lemonberrylabs/lindenmaker/pkg/geom"
	"github.com/lemonberrylabs/lindenmaker/pkg/parser"
	"github.com/lemonberrylabs/lindenmaker/pkg/runtime"
	"github.com/lemonberrylabs/lindenmaker/pkg/scene"
)

// Output formats of the interpret command.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatOBJ  = "obj"
)

func newInterpretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interpret [LSTRING]",
		Short: "Interpret an L-string or an l-system document",
		Long: "Interpret an L-string given as argument, or the l-system document given with --file.\n" +
			"Flags override the document defaults.",
		Args: cobra.MaximumNArgs(1),
		RunE: runInterpret,
	}

	f := cmd.Flags()
	f.StringP("file", "f", "", "L-system document (YAML or JSON)")
	f.Float64("length", 0, "Default move distance (default 1)")
	f.Float64("width", 0, "Initial line width (default 0.3)")
	f.Int("material", 0, "Initial material index (default 0)")
	f.Float64("angle", 0, "Default rotation in degrees (default 45)")
	f.StringSlice("materials", nil, "Material palette, comma separated")
	f.Bool("no-hierarchy", false, "Parent every object directly to the root")
	f.Bool("draw-nodes", false, "Draw a node sphere at every branch point")
	f.Float64("internode-length-scale", 0, "Scale of the drawn internode length (default 1)")
	f.Bool("dry-run", false, "Move the turtle without building a scene and report its final state")
	f.String("format", formatText, "Output format: text, json, yaml or obj")
	f.StringP("output", "o", "", "Write output to a file instead of stdout")
	return cmd
}

// interpretOutput is the json and yaml report of a drawing run.
type interpretOutput struct {
	Result *runtime.Result `json:"result" yaml:"result"`
	Stats  scene.Stats     `json:"stats" yaml:"stats"`
	Scene  scene.View      `json:"scene" yaml:"scene"`
}

// turtleReport is the report of a dry run.
type turtleReport struct {
	Result    *runtime.Result `json:"result" yaml:"result"`
	Position  geom.Vec3       `json:"position" yaml:"position"`
	Heading   geom.Vec3       `json:"heading" yaml:"heading"`
	Up        geom.Vec3       `json:"up" yaml:"up"`
	Left      geom.Vec3       `json:"left" yaml:"left"`
	LineWidth float64         `json:"lineWidth" yaml:"line_width"`
	Material  int             `json:"material" yaml:"material"`
	Depth     int             `json:"depth" yaml:"depth"`
}

func runInterpret(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case formatText, formatJSON, formatYAML, formatOBJ:
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	doc, err := loadDocument(cmd, args)
	if err != nil {
		return err
	}
	overrides := flagOverrides(cmd)

	logger, err := newLogger(cmd, "warn")
	if err != nil {
		return err
	}
	hooks := logging.Hooks(logger)

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		if format == formatOBJ {
			return errors.New("--dry-run builds no scene; use text, json or yaml")
		}
		opts, err := runtime.DecodeOptions(overrides, doc.Options())
		if err != nil {
			return err
		}
		t, res, err := runtime.DryRun(doc.LString, opts, len(doc.Materials), hooks)
		if err != nil {
			return err
		}
		st := t.State()
		return writeReport(out, format, turtleReport{
			Result:    res,
			Position:  st.Position(),
			Heading:   st.Heading(),
			Up:        st.Up(),
			Left:      st.Left(),
			LineWidth: st.LineWidth,
			Material:  st.Material,
			Depth:     t.Depth(),
		})
	}

	sc, res, err := doc.Run(overrides, hooks)
	if err != nil {
		return err
	}

	switch format {
	case formatOBJ:
		return sc.WriteOBJ(out)
	case formatText:
		return writeSummary(out, res, sc.Stats())
	default:
		return writeReport(out, format, interpretOutput{Result: res, Stats: sc.Stats(), Scene: sc.Export()})
	}
}

// loadDocument reads the --file document or wraps the LSTRING argument in a
// document with default settings.
func loadDocument(cmd *cobra.Command, args []string) (*parser.Document, error) {
	file, _ := cmd.Flags().GetString("file")

	var doc *parser.Document
	switch {
	case file != "" && len(args) > 0:
		return nil, errors.New("pass either LSTRING or --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading document: %w", err)
		}
		doc, err = parser.Parse(data)
		if err != nil {
			return nil, err
		}
	case len(args) == 1:
		doc = &parser.Document{
			LString:  args[0],
			Defaults: runtime.DefaultOptions(),
			Scene:    scene.DefaultOptions(),
		}
	default:
		return nil, errors.New("an LSTRING argument or --file is required")
	}

	f := cmd.Flags()
	if f.Changed("materials") {
		doc.Materials, _ = f.GetStringSlice("materials")
	}
	if f.Changed("no-hierarchy") {
		v, _ := f.GetBool("no-hierarchy")
		doc.Scene.Hierarchy = !v
	}
	if f.Changed("draw-nodes") {
		doc.Scene.DrawNodes, _ = f.GetBool("draw-nodes")
	}
	if f.Changed("internode-length-scale") {
		doc.Scene.InternodeLengthScale, _ = f.GetFloat64("internode-length-scale")
	}
	return doc, nil
}

// flagOverrides collects the interpretation defaults set on the command line.
func flagOverrides(cmd *cobra.Command) map[string]any {
	f := cmd.Flags()
	overrides := make(map[string]any)
	for _, name := range []string{"length", "width", "angle"} {
		if f.Changed(name) {
			overrides[name], _ = f.GetFloat64(name)
		}
	}
	if f.Changed("material") {
		overrides["material"], _ = f.GetInt("material")
	}
	return overrides
}

func openOutput(cmd *cobra.Command) (io.Writer, func(), error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func writeReport(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatText:
		if r, ok := v.(turtleReport); ok {
			return writeTurtle(w, r)
		}
		fallthrough
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func writeSummary(w io.Writer, res *runtime.Result, st scene.Stats) error {
	_, err := fmt.Fprintf(w,
		"commands:   %d (%d skipped)\ninternodes: %d\nnodes:      %d\nobjects:    %d\ndepth:      %d\nbounds:     %s .. %s\n",
		res.Commands, res.Skipped, st.Internodes, st.Nodes, st.Objects, st.MaxDepth, vec(st.Min), vec(st.Max))
	return err
}

func writeTurtle(w io.Writer, r turtleReport) error {
	_, err := fmt.Fprintf(w,
		"commands:   %d (%d skipped)\nposition:   %s\nheading:    %s\nup:         %s\nleft:       %s\nline width: %g\nmaterial:   %d\ndepth:      %d\n",
		r.Result.Commands, r.Result.Skipped, vec(r.Position), vec(r.Heading), vec(r.Up), vec(r.Left), r.LineWidth, r.Material, r.Depth)
	return err
}

// vec formats a vector with rounding noise removed.
func vec(v geom.Vec3) string {
	clean := func(f float64) float64 {
		r := math.Round(f*1e9) / 1e9
		if r == 0 {
			return 0
		}
		return r
	}
	return fmt.Sprintf("(%g, %g, %g)", clean(v.X), clean(v.Y), clean(v.Z))
}
