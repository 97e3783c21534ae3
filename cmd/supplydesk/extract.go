package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"supplydesk/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract product codes and records from a supplier document",
	RunE:  runExtract,
}

var (
	extractFile    string
	extractProfile string
	extractSender  string
)

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "Supplier document (.docx, .xlsx, .html, .pdf, .txt)")
	extractCmd.Flags().StringVarP(&extractProfile, "profile", "p", "", "Supplier profile name (default: by --sender, else generic)")
	extractCmd.Flags().StringVar(&extractSender, "sender", "", "Sender address used to pick a profile")
	_ = extractCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(extractCmd)
}

type extractOutput struct {
	Profile string   `json:"profile"`
	Kind    string   `json:"kind"`
	Source  string   `json:"source"`
	Codes   []string `json:"codes"`
	Records any      `json:"records"`
	Missed  int      `json:"missed"`
}

func runExtract(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	profile, err := pickProfile(a.Profiles, extractProfile, extractSender)
	if err != nil {
		return err
	}
	res, err := a.Documents().ExtractPath(cmd.Context(), extractFile, profile)
	if err != nil {
		return err
	}
	return printJSON(extractOutput{
		Profile: res.Profile,
		Kind:    string(res.Kind),
		Source:  string(res.Source),
		Codes:   res.Codes,
		Records: res.Records,
		Missed:  res.Missed,
	})
}

func pickProfile(reg *extract.Registry, name, sender string) (extract.SupplierProfile, error) {
	if name != "" {
		p, ok := reg.Get(name)
		if !ok {
			return extract.SupplierProfile{}, fmt.Errorf("unknown profile %q (known: %s)", name, strings.Join(reg.Names(), ", "))
		}
		return p, nil
	}
	return reg.ForSender(sender), nil
}
