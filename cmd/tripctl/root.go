package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/taxicast/taxicast/internal/api/models"
	"github.com/taxicast/taxicast/internal/prediction"
	"github.com/taxicast/taxicast/internal/registry"
	"github.com/taxicast/taxicast/internal/temporal"
)

// options are the flags shared by every subcommand.
type options struct {
	modelDir string
	debug    bool

	out    io.Writer
	logger zerolog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &options{out: out}

	cmd := &cobra.Command{
		Use:           "tripctl",
		Short:         "Inspect taxicast model directories and run offline predictions",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := zerolog.WarnLevel
			if opts.debug {
				level = zerolog.DebugLevel
			}
			opts.logger = zerolog.New(zerolog.ConsoleWriter{Out: errOut, NoColor: true}).
				Level(level).
				With().
				Timestamp().
				Logger()
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVarP(&opts.modelDir, "models", "m", "./models", "Model artifact directory")
	cmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "v", false, "Enable debug logs")

	cmd.AddCommand(newValidateCmd(opts), newPredictCmd(opts))
	return cmd
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load a model directory and run every integrity check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(reg.Summary())
		},
	}
}

func newPredictCmd(opts *options) *cobra.Command {
	var (
		pickup     string
		dropoff    string
		passengers int
		at         string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run a prediction offline and print the API response",
	}
	cmd.PersistentFlags().StringVar(&pickup, "pickup", "", "Pickup as LAT,LON")
	cmd.PersistentFlags().IntVar(&passengers, "passengers", 1, "Passenger count (1-6)")
	cmd.PersistentFlags().StringVar(&at, "at", "", "Local trip time as YYYY-MM-DDTHH:MM (default now)")
	_ = cmd.MarkPersistentFlagRequired("pickup")

	// request parses the shared flags; dropoff is only read for durations.
	request := func(withDropoff bool) (prediction.Request, error) {
		req := prediction.Request{Passengers: prediction.CountOf(passengers), Datetime: at}
		if req.Datetime == "" {
			req.Datetime = time.Now().Format(temporal.Layout)
		}

		lat, lon, err := parseLatLon("pickup", pickup)
		if err != nil {
			return prediction.Request{}, err
		}
		req.PickupLat, req.PickupLon = prediction.NumberOf(lat), prediction.NumberOf(lon)

		if withDropoff {
			dlat, dlon, err := parseLatLon("dropoff", dropoff)
			if err != nil {
				return prediction.Request{}, err
			}
			req.DropoffLat, req.DropoffLon = prediction.NumberOf(dlat), prediction.NumberOf(dlon)
		}
		return req, nil
	}

	duration := &cobra.Command{
		Use:   "duration",
		Short: "Predict trip duration between two points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := request(true)
			if err != nil {
				return err
			}
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.PredictDuration(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.print(models.NewDurationResponse(res))
		},
	}
	duration.Flags().StringVar(&dropoff, "dropoff", "", "Dropoff as LAT,LON")
	_ = duration.MarkFlagRequired("dropoff")

	destination := &cobra.Command{
		Use:   "destination",
		Short: "Predict the most likely destination zones from a pickup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := request(false)
			if err != nil {
				return err
			}
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.PredictDestination(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.print(models.NewDestinationResponse(res))
		},
	}

	cmd.AddCommand(duration, destination)
	return cmd
}

func (o *options) load(ctx context.Context) (*registry.Registry, error) {
	reg, err := registry.Load(ctx, registry.LoadConfig{
		Dir:    o.modelDir,
		Logger: o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", o.modelDir, err)
	}
	return reg, nil
}

func (o *options) service(ctx context.Context) (*prediction.Service, error) {
	reg, err := o.load(ctx)
	if err != nil {
		return nil, err
	}
	return prediction.NewService(prediction.ServiceConfig{
		Registry: reg,
		Logger:   o.logger,
	})
}

func (o *options) print(v any) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseLatLon reads a "LAT,LON" flag value.
func parseLatLon(name, raw string) (lat, lon float64, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--%s must be LAT,LON, got %q", name, raw)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("--%s latitude: %w", name, err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("--%s longitude: %w", name, err)
	}
	return lat, lon, nil
}
