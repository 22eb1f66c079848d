package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"bizcal/internal/analytics"
	"bizcal/internal/cmdlog"
	"bizcal/internal/config"
	"bizcal/internal/jobs"
	"bizcal/internal/logging"
	"bizcal/internal/lookup"
	"bizcal/internal/metrics"
	"bizcal/internal/model"
	"bizcal/internal/resolver"
	"bizcal/internal/schedule"
	"bizcal/internal/server"
	"bizcal/internal/store/sqlitecal"
	"bizcal/internal/theme"
	"bizcal/internal/util"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	var run func() error
	switch cmd {
	case "init":
		run = cmdInit
	case "import":
		run = cmdImport
	case "resolve":
		run = cmdResolve
	case "windows":
		run = cmdWindows
	case "holiday":
		run = cmdHoliday
	case "sync-holidays":
		run = cmdSyncHolidays
	case "stats":
		run = cmdStats
	case "serve":
		run = cmdServe
	default:
		printHelp()
		return
	}
	if err := cmdlog.Run(cmd, run); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: bizcal <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init           Create a config file at ./bizcal.yaml")
	fmt.Println("  import         Store configured calendars and assignments in the database")
	fmt.Println("  resolve        Find the next valid business hours for a date and time")
	fmt.Println("  windows        List the work windows that apply on a date")
	fmt.Println("  holiday        Check whether a date is a holiday")
	fmt.Println("  sync-holidays  Merge public holidays into a stored calendar")
	fmt.Println("  stats          Summarize logged resolutions of a calendar")
	fmt.Println("  serve          Run the HTTP API")
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	logging.SetLevel(cfg.Log.Level)
	return cfg, nil
}

// env bundles what resolution commands need. db is nil when reading from the config file.
type env struct {
	cfg    config.Config
	db     *sqlitecal.DB
	lookup *lookup.Lookup
	svc    *resolver.Service
}

func (e *env) Close() {
	if e.db != nil {
		_ = e.db.Close()
	}
}

func openEnv(cfgPath string, fromDB bool) (*env, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	w, err := cfg.Resolver.Walker()
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg}
	if !fromDB {
		e.lookup = lookup.New(lookup.NewConfigSource(cfg), cfg.DefaultCalendar)
		e.svc = resolver.New(e.lookup, w, nil)
		return e, nil
	}
	if e.db, err = sqlitecal.Open(cfg.Storage.DBPath); err != nil {
		return nil, err
	}
	e.lookup = lookup.New(e.db, cfg.DefaultCalendar)
	e.svc = resolver.New(e.lookup, w, e.db)
	return e, nil
}

// requestFlags registers the calendar selection flags shared by resolve and windows.
func requestFlags(fs *flag.FlagSet) *resolver.Request {
	req := &resolver.Request{}
	fs.StringVar(&req.CalendarID, "calendar", "", "calendar id (overrides user/process/task lookup)")
	fs.StringVar(&req.UserID, "user", "", "user id")
	fs.StringVar(&req.ProcessID, "process", "", "process id")
	fs.StringVar(&req.TaskID, "task", "", "task id")
	fs.StringVar(&req.Date, "date", time.Now().Format("2006-01-02"), "date (YYYY-MM-DD)")
	return req
}

func cmdInit() error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./bizcal.yaml", "path to write config (.yaml or .toml)")
	workDays := fs.String("workdays", "1,2,3,4,5", "work days of the default calendar, 0=Sunday")
	country := fs.String("public-holidays", "", "country code for public holiday sync")
	_ = fs.Parse(os.Args[2:])
	days, err := util.ParseInts(*workDays, 0, 6)
	if err != nil {
		return fmt.Errorf("workdays: %w", err)
	}
	cfg := config.Default()
	cfg.Calendars[0].WorkDays = days
	cfg.Calendars[0].PublicHolidays = *country
	if err := config.Save(*path, cfg); err != nil {
		return err
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
	return nil
}

func cmdImport() error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfgPath := fs.String("config", "./bizcal.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	db, err := sqlitecal.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()
	for _, cc := range cfg.Calendars {
		def, err := cc.Definition()
		if err != nil {
			return err
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("calendar %s: %w", cc.ID, err)
		}
		if _, err := db.PutCalendar(ctx, model.Calendar{ID: cc.ID, Name: cc.Name, Definition: def, PublicHolidays: cc.PublicHolidays}); err != nil {
			return err
		}
	}
	for _, a := range cfg.Assignments {
		switch a.Type {
		case model.ObjectUser, model.ObjectProcess, model.ObjectTask:
		default:
			return fmt.Errorf("assignment %s: unknown object type %q", a.ID, a.Type)
		}
		if err := db.Assign(ctx, model.Assignment{ObjectType: a.Type, ObjectID: a.ID, CalendarID: a.Calendar}); err != nil {
			return err
		}
	}
	fmt.Printf("Imported %d calendars and %d assignments into %s\n", len(cfg.Calendars), len(cfg.Assignments), cfg.Storage.DBPath)
	return nil
}

func cmdResolve() error {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	cfgPath := fs.String("config", "./bizcal.yaml", "config path")
	fromDB := fs.Bool("db", false, "read calendars from the database and log the resolution")
	showTrace := fs.Bool("trace", false, "print the resolution trace")
	req := requestFlags(fs)
	fs.StringVar(&req.Time, "time", time.Now().Format("15:04:05"), "time (HH:MM[:SS])")
	_ = fs.Parse(os.Args[2:])
	e, err := openEnv(*cfgPath, *fromDB)
	if err != nil {
		return err
	}
	defer e.Close()
	res, err := e.svc.Resolve(context.Background(), *req)
	if *showTrace {
		for _, line := range res.Trace {
			fmt.Println(line)
		}
	}
	if err != nil {
		return err
	}
	fmt.Printf("calendar=%s date=%s time=%s window=%q advances=%d\n",
		res.CalendarID, schedule.FormatDate(res.Resolved.Date), res.Resolved.Time, res.Resolved.Matched.String(), res.Resolved.Advances)
	fmt.Printf("windows on %s:\n", schedule.FormatDate(res.Resolved.Date))
	for _, w := range res.Resolved.Windows {
		fmt.Println("  " + w.String())
	}
	return nil
}

func cmdWindows() error {
	fs := flag.NewFlagSet("windows", flag.ExitOnError)
	cfgPath := fs.String("config", "./bizcal.yaml", "config path")
	fromDB := fs.Bool("db", false, "read calendars from the database")
	req := requestFlags(fs)
	_ = fs.Parse(os.Args[2:])
	e, err := openEnv(*cfgPath, *fromDB)
	if err != nil {
		return err
	}
	defer e.Close()
	ws, err := e.svc.Windows(context.Background(), *req)
	if err != nil {
		return err
	}
	if len(ws) == 0 {
		fmt.Println("no windows")
	}
	for _, w := range ws {
		fmt.Println(w.String())
	}
	return nil
}

func cmdHoliday() error {
	fs := flag.NewFlagSet("holiday", flag.ExitOnError)
	cfgPath := fs.String("config", "./bizcal.yaml", "config path")
	fromDB := fs.Bool("db", false, "read calendars from the database")
	req := requestFlags(fs)
	_ = fs.Parse(os.Args[2:])
	e, err := openEnv(*cfgPath, *fromDB)
	if err != nil {
		return err
	}
	defer e.Close()
	cal, err := e.svc.Calendar(context.Background(), *req)
	if err != nil {
		return err
	}
	d, err := schedule.ParseDate(req.Date)
	if err != nil {
		return err
	}
	rules := []struct {
		name string
		rule schedule.HolidayRule
	}{{"literal", schedule.MatchLiteral}, {"recurring", schedule.MatchRecurring}}
	for _, r := range rules {
		if h, ok := r.rule(cal.Definition.Holidays, d); ok {
			fmt.Printf("%-9s holiday %q (%s to %s)\n", r.name, h.Name, schedule.FormatDate(h.Start), schedule.FormatDate(h.End))
		} else {
			fmt.Printf("%-9s not a holiday\n", r.name)
		}
	}
	return nil
}

func cmdSyncHolidays() error {
	fs := flag.NewFlagSet("sync-holidays", flag.ExitOnError)
	cfgPath := fs.String("config", "./bizcal.yaml", "config path")
	calendars := fs.String("calendars", "", "comma-separated calendar ids (default: all with a country)")
	from := fs.Int("from", time.Now().Year(), "first year to sync")
	years := fs.Int("years", 2, "number of years to sync")
	_ = fs.Parse(os.Args[2:])
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	db, err := sqlitecal.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	ids := util.SplitAndTrim(*calendars)
	if len(ids) == 0 {
		cals, err := db.ListCalendars(ctx)
		if err != nil {
			return err
		}
		for _, c := range cals {
			if c.PublicHolidays != "" {
				ids = append(ids, c.ID)
			}
		}
	}
	if len(ids) == 0 {
		return errors.New("no calendars with public holidays; set publicHolidays and run import")
	}
	for _, id := range ids {
		n, err := jobs.SyncPublicHolidays(ctx, db, id, *from, *years)
		if err != nil {
			return fmt.Errorf("calendar %s: %w", id, err)
		}
		fmt.Printf("%s: added %d holidays\n", id, n)
	}
	return nil
}

func cmdStats() error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	cfgPath := fs.String("config", "./bizcal.yaml", "config path")
	calendar := fs.String("calendar", "", "calendar id (default: the default calendar)")
	limit := fs.Int("limit", 500, "most recent resolutions to read")
	_ = fs.Parse(os.Args[2:])
	e, err := openEnv(*cfgPath, true)
	if err != nil {
		return err
	}
	defer e.Close()
	id := *calendar
	if id == "" {
		id = e.cfg.DefaultCalendar
	}
	rs, err := e.db.LoadResolutions(context.Background(), id, *limit)
	if err != nil {
		return err
	}
	s := analytics.Summarize(rs)
	fmt.Printf("calendar=%s resolutions=%d deferred=%d mean_delay=%s max_delay=%s\n", id, s.Count, s.Deferred, s.MeanDelay, s.MaxDelay)
	b := analytics.HourlyResolved(rs)
	for _, k := range analytics.SortedBucketKeys(b) {
		fmt.Printf("%s -> %d\n", k.Format("2006-01-02 15:00"), b[k])
	}
	return nil
}

func cmdServe() error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "./bizcal.yaml", "config path")
	addr := fs.String("addr", "", "listen address (overrides config)")
	_ = fs.Parse(os.Args[2:])
	e, err := openEnv(*cfgPath, true)
	if err != nil {
		return err
	}
	defer e.Close()
	listen := e.cfg.Server.Addr
	if *addr != "" {
		listen = *addr
	}
	if strings.TrimSpace(listen) == "" {
		listen = ":8080"
	}
	metrics.StartServer(e.cfg.Metrics.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv := server.New(e.svc, e.db, server.NewRateLimiter(e.cfg.Server.RPS, e.cfg.Server.Burst))
	return srv.ListenAndServe(ctx, listen)
}
