package runtime

import (
	"github.com/lemonberrylabs/lindenmaker/pkg/scene"
	"github.com/lemonberrylabs/lindenmaker/pkg/turtle"
)

// Draw interprets src with a drawing turtle over a fresh scene. The scene is
// returned even when the run fails, holding whatever was drawn before the
// failing command.
func Draw(src string, opts Options, palette *scene.Palette, sceneOpts scene.Options, hooks Hooks) (*scene.Scene, *Result, error) {
	sc := scene.New(palette, sceneOpts)
	t := turtle.NewDrawing(sc, opts.Width, opts.Material)
	res, err := NewInterpreter(opts, hooks).Interpret(t, src)
	return sc, res, err
}

// DryRun interprets src with a turtle that draws nothing and returns it so
// its final state can be inspected.
func DryRun(src string, opts Options, materialCount int, hooks Hooks) (*turtle.Turtle, *Result, error) {
	t := turtle.New(opts.Width, opts.Material, materialCount)
	res, err := NewInterpreter(opts, hooks).Interpret(t, src)
	return t, res, err
}
