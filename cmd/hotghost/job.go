package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"hotghost/internal/effects"
	"hotghost/internal/generator"
	"hotghost/internal/templates"
)

// Job is a generation described in YAML.
type Job struct {
	Template string               `yaml:"template"`
	Inputs   map[string]string    `yaml:"inputs"`
	Texts    generator.TextSet    `yaml:"texts"`
	Effects  map[string]yaml.Node `yaml:"effects"`

	dir string
}

// loadJob parses a job file. Unknown keys are rejected so typos surface.
func loadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var job Job
	if err := dec.Decode(&job); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if job.Template == "" {
		return nil, fmt.Errorf("parse %s: template is required", path)
	}
	job.dir = filepath.Dir(path)
	return &job, nil
}

// request reads the inputs and builds a generator request.
func (j *Job) request(family templates.Family) (generator.Request, error) {
	id, err := templates.ParseID(j.Template)
	if err != nil {
		return generator.Request{}, err
	}
	req := generator.Request{
		Family:   family,
		Template: id,
		Texts:    j.Texts,
		Slots:    make(map[string]generator.MediaSlot, len(j.Inputs)),
	}

	for slot, p := range j.Inputs {
		if !filepath.IsAbs(p) {
			p = filepath.Join(j.dir, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return req, fmt.Errorf("input %s: %w", slot, err)
		}
		req.Slots[slot] = generator.MediaSlot{Name: filepath.Base(p), Data: data}
	}

	if len(j.Effects) > 0 {
		req.Effects = make(map[string]effects.Settings, len(j.Effects))
		for slot, node := range j.Effects {
			s := effects.Defaults()
			if err := node.Decode(&s); err != nil {
				return req, fmt.Errorf("effects %s: %w", slot, err)
			}
			req.Effects[slot] = s
		}
	}
	return req, nil
}
