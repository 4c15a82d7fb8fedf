package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/santif/openid/message"
	"github.com/santif/openid/observability"
	"github.com/santif/openid/param"
	"github.com/spf13/cobra"
)

type keyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type decodedExtension struct {
	Alias      string     `json:"alias"`
	TypeURI    string     `json:"type_uri"`
	Parameters []keyValue `json:"parameters,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type decodedMessage struct {
	Mode       string             `json:"mode,omitempty"`
	Namespace  string             `json:"namespace"`
	Request    bool               `json:"request"`
	Parameters []keyValue         `json:"parameters"`
	Extensions []decodedExtension `json:"extensions"`
}

func newDecodeCommand(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Decode a received message and resolve its extensions",
		Long: `Decode a message in key-value form or www-form-urlencoded form.

The input is read from the named file or stdin. A full URL is accepted in form
mode and its query is decoded. Every declared extension is resolved with the
registered factories.`,
		Example: `  openidmsg decode response.kv
  echo 'https://rp.example.com/return?openid.mode=id_res' | openidmsg decode --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			m, err := a.decode(input, format)
			if err != nil {
				return err
			}

			decoded := a.describe(m)
			if output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(decoded)
			}
			writeDecoded(cmd.OutOrStdout(), decoded)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", FormatAuto, "input format (auto, kv, form)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json)")

	return cmd
}

// decode builds a received message from input in the given format
func (a *app) decode(input, format string) (*message.Message, error) {
	if format == FormatAuto {
		format = detectFormat(input)
		a.logger.Debug("Detected input format", observability.NewField("format", format))
	}

	switch format {
	case FormatKV:
		return message.NewFromKeyValueForm(input, a.messageOptions()...)
	case FormatForm:
		query, err := formQuery(input)
		if err != nil {
			return nil, err
		}
		return message.NewFromWWWForm(query, a.messageOptions()...)
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

// describe resolves every declared extension of m
func (a *app) describe(m *message.Message) decodedMessage {
	mode, _ := m.Mode()
	out := decodedMessage{
		Mode:       mode,
		Namespace:  m.Namespace(),
		Request:    m.IsRequest(),
		Parameters: keyValues(m.Parameters()),
		Extensions: []decodedExtension{},
	}

	for _, typeURI := range m.Extensions() {
		alias, _ := m.ExtensionAlias(typeURI)
		ext := decodedExtension{Alias: alias, TypeURI: typeURI}

		resolved, err := m.Extension(typeURI)
		if err != nil {
			a.logger.Warn("Extension not resolved",
				observability.NewField("type_uri", typeURI),
				observability.NewField("error", err.Error()))
			ext.Error = err.Error()
		} else {
			ext.Parameters = keyValues(resolved.Parameters().Parameters())
		}

		out.Extensions = append(out.Extensions, ext)
	}

	return out
}

func keyValues(params []param.Parameter) []keyValue {
	out := make([]keyValue, 0, len(params))
	for _, p := range params {
		out = append(out, keyValue{Key: p.Key, Value: p.Value})
	}
	return out
}

func writeDecoded(w io.Writer, d decodedMessage) {
	fmt.Fprintf(w, "Namespace: %s\n", d.Namespace)
	fmt.Fprintf(w, "Mode: %s\n", d.Mode)
	fmt.Fprintf(w, "Request: %t\n", d.Request)

	fmt.Fprintln(w, "\nParameters:")
	for _, p := range d.Parameters {
		fmt.Fprintf(w, "  %s: %s\n", p.Key, p.Value)
	}

	if len(d.Extensions) == 0 {
		return
	}

	fmt.Fprintln(w, "\nExtensions:")
	for _, ext := range d.Extensions {
		fmt.Fprintf(w, "  %s %s\n", ext.Alias, ext.TypeURI)
		if ext.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", ext.Error)
			continue
		}
		for _, p := range ext.Parameters {
			fmt.Fprintf(w, "    %s: %s\n", p.Key, p.Value)
		}
	}
}
