// Command conveyor-interlock runs the conveyor motor safety interlock and
// publishes its state to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/conveyor-interlock/internal/alarm"
	"github.com/sweeney/conveyor-interlock/internal/config"
	"github.com/sweeney/conveyor-interlock/internal/hardware"
	"github.com/sweeney/conveyor-interlock/internal/interlock"
	"github.com/sweeney/conveyor-interlock/internal/mqtt"
	"github.com/sweeney/conveyor-interlock/internal/status"
	"github.com/sweeney/conveyor-interlock/internal/web"
)

var rootCmd = &cobra.Command{
	Use:           "conveyor-interlock",
	Short:         "Conveyor motor safety interlock",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CONVEYOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (built-in defaults when empty)")
	rootCmd.PersistentFlags().String("journal", "", "alarm journal path (overrides config)")
	rootCmd.PersistentFlags().Bool("simulate", false, "use simulated hardware")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("journal", rootCmd.PersistentFlags().Lookup("journal"))
	_ = viper.BindPFlag("simulate", rootCmd.PersistentFlags().Lookup("simulate"))
}

func registerCommands() {
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(printStateCmd())
	rootCmd.AddCommand(printConfigCmd())
	rootCmd.AddCommand(alarmsCmd())
}

// loadConfig reads the config file, if any, and applies flag and
// environment overrides from v.
func loadConfig(v *viper.Viper) (config.Config, error) {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	applyOverrides(&cfg, v)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, v *viper.Viper) {
	if v.IsSet("poll") {
		cfg.Poll = v.GetDuration("poll")
	}
	if v.IsSet("heartbeat") {
		cfg.Heartbeat = v.GetDuration("heartbeat")
	}
	if v.IsSet("broker") {
		cfg.Broker = v.GetString("broker")
	}
	if v.IsSet("http") {
		cfg.HTTP = v.GetString("http")
	}
	if v.IsSet("journal") {
		cfg.Journal = v.GetString("journal")
	}
	if v.IsSet("simulate") {
		cfg.Simulate = v.GetBool("simulate")
	}
	if v.IsSet("chip") {
		cfg.Chip = v.GetString("chip")
	}
	if v.IsSet("pin-estop") {
		cfg.Pins.EStop = v.GetInt("pin-estop")
	}
	if v.IsSet("pin-fault") {
		cfg.Pins.Fault = v.GetInt("pin-fault")
	}
	if v.IsSet("pin-jam") {
		cfg.Pins.Jam = v.GetInt("pin-jam")
	}
	if v.IsSet("pin-motor") {
		cfg.Pins.Motor = v.GetInt("pin-motor")
	}
}

// addHardwareFlags registers the chip and pin flags shared by run and print-state.
func addHardwareFlags(cmd *cobra.Command) {
	def := config.Default()
	cmd.Flags().String("chip", def.Chip, "GPIO chip name")
	cmd.Flags().Int("pin-estop", def.Pins.EStop, "BCM pin number for the E-Stop input")
	cmd.Flags().Int("pin-fault", def.Pins.Fault, "BCM pin number for the drive fault input")
	cmd.Flags().Int("pin-jam", def.Pins.Jam, "BCM pin number for the jam sensor")
	cmd.Flags().Int("pin-motor", def.Pins.Motor, "BCM pin number for the motor output")
}

// bindFlags binds the local flags of the executing command. Binding at
// run time keeps commands that share flag names from shadowing each other.
func bindFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the interlock poll loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			bindFlags(cmd)
			cfg, err := loadConfig(viper.GetViper())
			if err != nil {
				return err
			}
			return run(cfg, os.Stdin, os.Stdout)
		},
	}
	def := config.Default()
	cmd.Flags().Duration("poll", def.Poll, "sensor polling interval")
	cmd.Flags().Duration("heartbeat", def.Heartbeat, "heartbeat interval (0 to disable)")
	cmd.Flags().String("broker", def.Broker, "MQTT broker address")
	cmd.Flags().String("http", def.HTTP, "HTTP status address (empty to disable)")
	addHardwareFlags(cmd)
	return cmd
}

// openDevice returns the configured hardware backend. sim is non-nil only
// in simulation.
func openDevice(cfg config.Config) (dev hardware.Device, sim *hardware.SimulatedHardware, err error) {
	if cfg.Simulate {
		sim = hardware.NewSimulatedHardware()
		return sim, sim, nil
	}
	hw, err := hardware.NewRealHardware(cfg.Chip, cfg.Pins)
	if err != nil {
		return nil, nil, fmt.Errorf("init hardware: %w", err)
	}
	return hw, nil, nil
}

func run(cfg config.Config, console io.Reader, out io.Writer) error {
	dev, sim, err := openDevice(cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	publisher := mqtt.NewRealPublisher(cfg.Broker)
	defer publisher.Close()

	// Journal is optional; a nil interface keeps alarms off disk.
	var store alarm.Store
	var lister web.AlarmLister
	if cfg.Journal != "" {
		journal, err := alarm.OpenJournal(cfg.Journal)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer journal.Close()
		store, lister = journal, journal
	}
	alarms := alarm.NewService(store, publisher)

	ts := interlock.New(dev, dev, dev, alarms)

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTP,
		Journal:     cfg.Journal,
		Simulated:   cfg.Simulate,
	})

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker, lister)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	log.Printf("started: poll=%v broker=%s heartbeat=%v simulate=%v", cfg.Poll, cfg.Broker, cfg.Heartbeat, cfg.Simulate)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		dev:        dev,
		sim:        sim,
		ts:         ts,
		monitor:    interlock.NewSafetyMonitor(),
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		alarms:     alarms,
		heartbeat:  cfg.Heartbeat,
		now:        time.Now,
		out:        out,
	}
	done := make(chan struct{})
	defer close(done)
	return l.run(ticker.C, sigCh, readConsole(console, done))
}

func printStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print-state",
		Short: "Read every signal once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			bindFlags(cmd)
			cfg, err := loadConfig(viper.GetViper())
			if err != nil {
				return err
			}
			dev, _, err := openDevice(cfg)
			if err != nil {
				return err
			}
			defer dev.Close()
			printState(cmd.OutOrStdout(), hardware.Read(dev))
			return nil
		},
	}
	addHardwareFlags(cmd)
	return cmd
}

func printState(w io.Writer, s hardware.Sample) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Signal", "State"})
	tw.AppendRow(table.Row{"E-Stop", assertedString(s.EStop)})
	tw.AppendRow(table.Row{"Fault", assertedString(s.Fault)})
	tw.AppendRow(table.Row{"Jam", assertedString(s.Jam)})
	motor := "STOPPED"
	if s.Running {
		motor = "RUNNING"
	}
	tw.AppendRow(table.Row{"Motor", motor})
	tw.Render()
}

func printConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print-config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(viper.GetViper())
			if err != nil {
				return err
			}
			data, err := cfg.ToYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func alarmsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "alarms", Short: "Inspect the alarm journal"}
	cmd.AddCommand(alarmsListCmd())
	cmd.AddCommand(alarmsClearCmd())
	return cmd
}

// withJournal opens the configured journal for the duration of fn.
func withJournal(fn func(j *alarm.Journal) error) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.Journal == "" {
		return errors.New("no alarm journal configured")
	}
	j, err := alarm.OpenJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()
	return fn(j)
}

func alarmsListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent alarms, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(func(j *alarm.Journal) error {
				alarms, err := j.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				printAlarms(cmd.OutOrStdout(), alarms)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of alarms (0 for all)")
	return cmd
}

func printAlarms(w io.Writer, alarms []alarm.Alarm) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Time", "Message"})
	for _, a := range alarms {
		tw.AppendRow(table.Row{a.ID, a.Timestamp.UTC().Format(time.RFC3339), a.Message})
	}
	tw.Render()
}

func alarmsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <match>",
		Short: "Delete alarms whose message contains match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(func(j *alarm.Journal) error {
				n, err := j.Clear(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %d alarm(s)\n", n)
				return nil
			})
		},
	}
}
