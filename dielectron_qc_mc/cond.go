package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/decibelcooper/dileptonqc/conditions"
)

var condDB string

var condCmd = &cobra.Command{
	Use:   "cond",
	Short: "Manage the conditions database",
}

var condPutCmd = &cobra.Command{
	Use:   "put <path> <from-ms> <until-ms> <json>",
	Short: "Store a conditions object valid in [from, until)",
	Example: `  dielectron_qc_mc cond put GLO/Config/GRPMagField 0 1800000000000 '{"l3_current": 30000}'
  dielectron_qc_mc cond put GLO/Config/GRPLHCIF 0 1800000000000 '{"beam_energy_per_z": 6800, "beam_z": [1, 1], "beam_a": [1, 1]}'`,
	Args: cobra.ExactArgs(4),
	RunE: condPut,
}

var condGetCmd = &cobra.Command{
	Use:   "get <path> <timestamp-ms>",
	Short: "Print the object valid at a timestamp",
	Args:  cobra.ExactArgs(2),
	RunE:  condGet,
}

var condListCmd = &cobra.Command{
	Use:   "list <path>",
	Short: "List the stored objects of a path",
	Args:  cobra.ExactArgs(1),
	RunE:  condList,
}

func init() {
	condCmd.PersistentFlags().StringVar(&condDB, "db", "conditions.db", "conditions database")
	condCmd.AddCommand(condPutCmd)
	condCmd.AddCommand(condGetCmd)
	condCmd.AddCommand(condListCmd)
}

// payloadType returns the object a path decodes into, or nil for paths the
// tasks never read.
func payloadType(path string) any {
	switch path {
	case conditions.PathGRP:
		return &conditions.GRP{}
	case conditions.PathMagField:
		return &conditions.MagField{}
	case conditions.PathLHCIF:
		return &conditions.LHCIF{}
	}
	return nil
}

func condPut(cmd *cobra.Command, args []string) error {
	path := args[0]
	from, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid validity start: %w", err)
	}
	until, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid validity end: %w", err)
	}

	payload := []byte(args[3])
	if v := payloadType(path); v != nil {
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("invalid %s payload: %w", path, err)
		}
	} else {
		logger.Warn("Storing object under a path no task reads", zap.String("path", path))
	}

	store, err := conditions.OpenStore(condDB)
	if err != nil {
		return err
	}
	defer store.Close()

	if until <= from {
		return fmt.Errorf("empty validity [%d, %d)", from, until)
	}
	obj := conditions.Object{Path: path, From: from, Until: until, Payload: payload}
	if err := store.PutRaw(cmd.Context(), obj); err != nil {
		return err
	}
	logger.Info("Stored conditions object",
		zap.String("path", path), zap.Int64("from", from), zap.Int64("until", until))
	return nil
}

func condGet(cmd *cobra.Command, args []string) error {
	timestamp, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}

	store, err := conditions.OpenStore(condDB)
	if err != nil {
		return err
	}
	defer store.Close()

	var raw json.RawMessage
	if err := store.Fetch(cmd.Context(), args[0], timestamp, &raw); err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.String())
	return nil
}

func condList(cmd *cobra.Command, args []string) error {
	store, err := conditions.OpenStore(condDB)
	if err != nil {
		return err
	}
	defer store.Close()

	objs, err := store.List(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, obj := range objs {
		fmt.Fprintf(w, "[%d, %d)\t%s\t%s\n", obj.From, obj.Until, obj.Created.Format(time.RFC3339), obj.Payload)
	}
	return nil
}
