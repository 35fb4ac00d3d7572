package generator

import (
	"context"
	"fmt"

	"hotghost/internal/pipeline"
	"hotghost/internal/templates"
)

func (v *validated) input(slot string) pipeline.Input {
	return pipeline.Input{Data: v.Slots[slot].Data, Ext: v.info[slot].Extension}
}

func (g *Generator) generateVideo(ctx context.Context, v *validated, progress func(float64)) (*Result, error) {
	var out *pipeline.Output
	var err error

	switch v.Template {
	case templates.Metropoles:
		out, err = g.pipeline.RunMetropoles(ctx, pipeline.MetropolesRequest{
			Video:   v.input(SlotLeft),
			Texts:   v.Texts,
			Effects: v.effects(SlotLeft),
		}, progress)
	case templates.Choquei:
		out, err = g.pipeline.RunChoquei(ctx, pipeline.ChoqueiRequest{
			Left:         v.input(SlotLeft),
			Right:        v.input(SlotRight),
			Texts:        v.Texts,
			LeftEffects:  v.effects(SlotLeft),
			RightEffects: v.effects(SlotRight),
		}, progress)
	case templates.Classico:
		out, err = g.pipeline.RunClassico(ctx, pipeline.ClassicoRequest{
			Video:   v.input(SlotLeft),
			Effects: v.effects(SlotLeft),
		}, progress)
	default:
		return nil, fmt.Errorf("no video pipeline for %s", v.Template)
	}
	if err != nil {
		return nil, err
	}
	return &Result{
		ContentType: "video/mp4",
		Extension:   ".mp4",
		Data:        out.Data,
		Duration:    out.Duration,
		Audio:       out.Audio,
		Trace:       out.Trace,
	}, nil
}
