package generator

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"hotghost/internal/compositor"
	"hotghost/internal/media"
	"hotghost/internal/templates"
)

// decodeSlots decodes every slot concurrently.
func decodeSlots(v *validated) ([]image.Image, error) {
	imgs := make([]image.Image, len(v.slots))
	var eg errgroup.Group
	for i, name := range v.slots {
		eg.Go(func() error {
			img, err := media.Decode(v.Slots[name].Data)
			if err != nil {
				return &DecodeError{Slot: name, Err: err}
			}
			imgs[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return imgs, nil
}

func (g *Generator) generateImage(ctx context.Context, v *validated) (*Result, error) {
	imgs, err := decodeSlots(v)
	if err != nil {
		return nil, err
	}

	switch v.Template {
	case templates.Metropoles:
		canvas, err := g.compositor.Metropoles(ctx, imgs[0], v.Texts, v.effects(SlotLeft))
		if err != nil {
			return nil, err
		}
		data, err := compositor.EncodePNG(canvas)
		if err != nil {
			return nil, err
		}
		return &Result{ContentType: "image/png", Extension: ".png", Data: data}, nil

	case templates.Choquei:
		canvas, err := g.compositor.Choquei(ctx, imgs[0], imgs[1], v.Texts, v.effects(SlotLeft), v.effects(SlotRight))
		if err != nil {
			return nil, err
		}
		data, err := compositor.EncodeJPEG(canvas, compositor.JPEGQuality)
		if err != nil {
			return nil, err
		}
		return &Result{ContentType: "image/jpeg", Extension: ".jpg", Data: data}, nil
	}
	return nil, fmt.Errorf("no still renderer for %s", v.Template)
}
