package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/resforge/resforge/asset"
	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/parallel"
)

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() < n {
		return fmt.Errorf("%s: expected %s", c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

func infoAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	s, err := loadSettings(c)
	if err != nil {
		return err
	}
	path := c.Args().First()

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer f.Close()
	sum, err := asset.ComputeChecksumReader(f)
	if err != nil {
		return errors.Wrapf(err, "checksum %s", path)
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	doc, err := asset.Open(path, s.opts)
	if err != nil {
		return errors.Wrap(err, "decode")
	}
	summary := asset.Summarize(doc)

	w := c.App.Writer
	fmt.Fprintf(w, "file:    %s\n", path)
	fmt.Fprintf(w, "kind:    %s/%s\n", summary.Kind, summary.Format)
	fmt.Fprintf(w, "size:    %d bytes\n", size)
	fmt.Fprintf(w, "sha256:  %s\n", sum)
	if summary.Name != "" {
		fmt.Fprintf(w, "name:    %s\n", summary.Name)
	}
	if summary.Duration > 0 {
		fmt.Fprintf(w, "length:  %.3fs\n", summary.Duration)
	}
	keys := make([]string, 0, len(summary.Counts))
	for k := range summary.Counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-16s %d\n", k+":", summary.Counts[k])
	}

	entries, err := asset.EntryChecksums(doc, s.opts)
	if err != nil {
		return errors.Wrap(err, "entry checksums")
	}
	for i, sum := range entries {
		fmt.Fprintf(w, "  entry %-10d %s\n", i, sum)
	}
	return nil
}

type verifyResult struct {
	Path      string
	Kind      string
	Encoded   asset.Checksum
	Identical bool // Re-encoding reproduced the input bytes exactly
}

// verifyFile decodes path, encodes the graph, decodes that encoding and encodes it again.
// The two encodings must be byte-identical.
func verifyFile(path string, opts asset.Options) (verifyResult, error) {
	res := verifyResult{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return res, err
	}
	opts.Path = path
	doc, err := asset.Read(bytes.NewReader(data), opts)
	if err != nil {
		return res, errors.Wrapf(err, "decode %s", path)
	}
	res.Kind = doc.Descriptor().String()
	if err := asset.Validate(doc); err != nil {
		return res, errors.Wrapf(err, "validate %s", path)
	}

	first, err := asset.Marshal(doc, opts)
	if err != nil {
		return res, errors.Wrapf(err, "encode %s", path)
	}
	again, err := asset.Read(bytes.NewReader(first), opts)
	if err != nil {
		return res, errors.Wrapf(err, "decode re-encoded %s", path)
	}
	second, err := asset.Marshal(again, opts)
	if err != nil {
		return res, errors.Wrapf(err, "encode %s again", path)
	}

	res.Encoded = asset.ComputeChecksum(first)
	if err := asset.ValidateChecksum(asset.ComputeChecksum(second), res.Encoded); err != nil {
		return res, errors.Wrapf(err, "re-encoding %s is not stable", path)
	}
	res.Identical = bytes.Equal(first, data)
	return res, nil
}

func verifyAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	s, err := loadSettings(c)
	if err != nil {
		return err
	}
	paths := c.Args().Slice()

	results, err := parallel.Map(context.Background(), paths, func(_ context.Context, path string) (verifyResult, error) {
		res, err := verifyFile(path, s.opts)
		if err != nil {
			return res, err
		}
		s.logger.WithFields(logrus.Fields{
			"file":      path,
			"kind":      res.Kind,
			"identical": res.Identical,
		}).Debug("verified")
		return res, nil
	}, s.parallel)
	if err != nil {
		return err
	}

	w := c.App.Writer
	for _, res := range results {
		note := ""
		if !res.Identical {
			note = " (normalized)"
		}
		fmt.Fprintf(w, "ok  %s  %s  %s%s\n", res.Kind, res.Encoded, res.Path, note)
	}
	return nil
}

type dumpOutput struct {
	Summary  asset.Summary           `json:"summary"`
	Document asset.Document          `json:"document,omitempty"`
	Samples  map[string][]binio.Vec4 `json:"samples,omitempty"`
}

// motionSamples evaluates every track at n evenly spaced times across the motion.
func motionSamples(m *asset.Motion, n int) map[string][]binio.Vec4 {
	if n <= 0 || len(m.Tracks) == 0 {
		return nil
	}
	out := make(map[string][]binio.Vec4, len(m.Tracks))
	d := m.Duration()
	for i := range m.Tracks {
		tr := &m.Tracks[i]
		values := make([]binio.Vec4, n)
		for j := range values {
			t := float32(0)
			if n > 1 {
				t = d * float32(j) / float32(n-1)
			}
			values[j] = tr.Sample(t)
		}
		out[fmt.Sprintf("%d/%s", tr.Bone, tr.Encoding.Channel)] = values
	}
	return out
}

func dumpAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	s, err := loadSettings(c)
	if err != nil {
		return err
	}
	doc, err := asset.Open(c.Args().First(), s.opts)
	if err != nil {
		return errors.Wrap(err, "decode")
	}

	out := dumpOutput{Summary: asset.Summarize(doc)}
	if !c.Bool("summary") {
		out.Document = doc
	}
	if m, ok := doc.(*asset.Motion); ok {
		out.Samples = motionSamples(m, c.Int("samples"))
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(out), "encode json")
}

func repackAction(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	s, err := loadSettings(c)
	if err != nil {
		return err
	}
	in, out := c.Args().Get(0), c.Args().Get(1)

	doc, err := asset.Open(in, s.opts)
	if err != nil {
		return errors.Wrap(err, "decode input")
	}
	outOpts := s.opts
	outOpts.Path = ""
	if order := c.String("byte-order"); order != "" {
		if outOpts.ByteOrder, err = parseByteOrder(order); err != nil {
			return err
		}
	}
	if err := asset.Save(out, doc, outOpts); err != nil {
		return errors.Wrap(err, "write output")
	}

	s.logger.WithFields(logrus.Fields{
		"in":    in,
		"out":   out,
		"order": outOpts.ByteOrder.String(),
	}).Info("repacked")
	return nil
}
