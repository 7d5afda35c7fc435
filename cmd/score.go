package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/resumatch/internal/adapters/extract"
	service "github.com/okian/resumatch/internal/app"
	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/spf13/cobra"
)

type scoreFlags struct {
	resume   string
	jd       string
	jobID    string
	keywords []string
}

// scoreOutput is the JSON printed by the score command.
type scoreOutput struct {
	JobID         string        `json:"job_id"`
	Score         float64       `json:"score"`
	Verdict       types.Verdict `json:"verdict"`
	Missing       []string      `json:"missing"`
	Feedback      string        `json:"feedback"`
	HardScore     float64       `json:"hard_score"`
	SemanticScore float64       `json:"semantic_score"`
}

func newScoreCmd(c *cli) *cobra.Command {
	var f scoreFlags
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one resume against a job description and print JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.score(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVar(&f.resume, "resume", "", "resume file (.txt, .md, .html)")
	cmd.Flags().StringVar(&f.jd, "jd", "", "job description file (.txt, .md, .html)")
	cmd.Flags().StringVar(&f.jobID, "job-id", "", "job id the description vector is cached under")
	cmd.Flags().StringSliceVar(&f.keywords, "keywords", nil, "comma separated keywords (default: configured list)")
	_ = cmd.MarkFlagRequired("resume")
	_ = cmd.MarkFlagRequired("jd")
	_ = cmd.MarkFlagRequired("job-id")
	return cmd
}

func (c *cli) score(ctx context.Context, out io.Writer, f scoreFlags) error {
	resume, err := readText(f.resume)
	if err != nil {
		return err
	}
	jd, err := readText(f.jd)
	if err != nil {
		return err
	}

	svc := service.New(
		service.WithConfig(c.cfg),
		service.WithLogger(c.log.Named("service")),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	sub := model.Submission{JobID: f.jobID, ResumeText: resume, JDText: jd}
	if len(f.keywords) > 0 {
		sub.Keywords = trimAll(f.keywords)
	}
	res, err := svc.Score(ctx, sub)
	if err != nil {
		return err
	}

	missing := res.MissingKeywords
	if missing == nil {
		missing = []string{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(scoreOutput{
		JobID:         f.jobID,
		Score:         res.ScorePercentage,
		Verdict:       res.Verdict,
		Missing:       missing,
		Feedback:      res.Feedback,
		HardScore:     res.HardScore,
		SemanticScore: res.SemanticScore,
	})
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text, err := extract.Text(data, path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
