package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"gxpc/internal/diagfmt"
	"gxpc/internal/msgextract"
	"gxpc/internal/msgfmt"
)

var messagesCmd = &cobra.Command{
	Use:   "messages [flags] [file.gxp.json|directory]...",
	Short: "Print the translatable messages of the checked units",
	RunE:  runMessages,
}

func init() {
	messagesCmd.Flags().String("format", "json", "output format (json|text)")
	messagesCmd.Flags().Bool("preview", false, "render each message with its placeholder examples")
	messagesCmd.Flags().String("locale", "en", "locale used for --preview")
}

type placeholderJSON struct {
	Name     string `json:"name"`
	Original string `json:"original"`
	Example  string `json:"example,omitempty"`
}

type messageJSON struct {
	// ID не влезает в double, поэтому строкой
	ID           string            `json:"id"`
	ContentType  string            `json:"content_type"`
	Meaning      string            `json:"meaning,omitempty"`
	Description  string            `json:"description,omitempty"`
	Hidden       bool              `json:"hidden,omitempty"`
	Presentation string            `json:"presentation"`
	Original     string            `json:"original"`
	Placeholders []placeholderJSON `json:"placeholders,omitempty"`
	Sources      []string          `json:"sources"`
	Preview      string            `json:"preview,omitempty"`
}

type catalogJSON struct {
	Locale   string        `json:"locale,omitempty"`
	Count    int           `json:"count"`
	Messages []messageJSON `json:"messages"`
}

func runMessages(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "json" && format != "text" {
		return errInvalidFlag("format", format, "json|text")
	}
	preview, err := cmd.Flags().GetBool("preview")
	if err != nil {
		return err
	}
	localeValue, err := cmd.Flags().GetString("locale")
	if err != nil {
		return err
	}
	tag, err := language.Parse(localeValue)
	if err != nil {
		return fmt.Errorf("invalid --locale %q: %w", localeValue, err)
	}

	s, err := prepareCheck(cmd, args, nil)
	if err != nil {
		return err
	}
	report, err := runPlain(cmd, s)
	if err != nil {
		return err
	}
	if report.Errors > 0 {
		if err := diagfmt.Short(cmd.ErrOrStderr(), report.Diagnostics, s.baseDir); err != nil {
			return err
		}
		return errDiagnostics
	}

	var cache *msgfmt.Cache
	if preview {
		cache = msgfmt.NewCache()
	}
	catalog := catalogJSON{Messages: []messageJSON{}}
	if preview {
		catalog.Locale = tag.String()
	}
	for _, m := range report.Messages() {
		entry, err := buildMessageJSON(m, cache, tag)
		if err != nil {
			return err
		}
		catalog.Messages = append(catalog.Messages, entry)
	}
	catalog.Count = len(catalog.Messages)

	out := cmd.OutOrStdout()
	if format == "text" {
		printMessagesText(out, catalog)
		return nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(catalog)
}

func buildMessageJSON(m *msgextract.Message, cache *msgfmt.Cache, tag language.Tag) (messageJSON, error) {
	entry := messageJSON{
		ID:           strconv.FormatUint(m.ID, 10),
		ContentType:  m.ContentType,
		Meaning:      m.Meaning,
		Description:  m.Description,
		Hidden:       m.Hidden,
		Presentation: m.Presentation(),
		Original:     m.Original(),
		Sources:      m.Sources,
	}
	for _, ph := range m.Placeholders() {
		entry.Placeholders = append(entry.Placeholders, placeholderJSON{
			Name:     ph.Name,
			Original: ph.Original,
			Example:  ph.Example,
		})
	}
	if cache != nil {
		text, err := cache.Expand(tag, entry.Original, previewArgs(m)...)
		if err != nil {
			return entry, fmt.Errorf("message %s: %w", entry.ID, err)
		}
		entry.Preview = text
	}
	return entry, nil
}

// previewArgs fills the positional arguments of m's pattern with the
// placeholder examples, or with the placeholder names when no example was
// given.
func previewArgs(m *msgextract.Message) []string {
	var args []string
	for _, ph := range m.Placeholders() {
		f := msgfmt.Parse(ph.Original)
		if len(f.Fragments) != 1 || f.Fragments[0].Arg == 0 {
			continue
		}
		n := f.Fragments[0].Arg
		for len(args) < n {
			args = append(args, "")
		}
		value := ph.Example
		if value == "" {
			value = "{" + ph.Name + "}"
		}
		args[n-1] = value
	}
	return args
}

func printMessagesText(out io.Writer, catalog catalogJSON) {
	for _, m := range catalog.Messages {
		fmt.Fprintf(out, "%s %s\n", color.CyanString(m.ID), m.Presentation)
		if m.Meaning != "" {
			fmt.Fprintf(out, "  meaning: %s\n", m.Meaning)
		}
		if m.Description != "" {
			fmt.Fprintf(out, "  desc:    %s\n", m.Description)
		}
		if m.Preview != "" {
			fmt.Fprintf(out, "  preview: %s\n", m.Preview)
		}
		for _, src := range m.Sources {
			fmt.Fprintf(out, "  %s\n", color.HiBlackString(src))
		}
	}
	fmt.Fprintf(out, "%d message(s)\n", catalog.Count)
}
