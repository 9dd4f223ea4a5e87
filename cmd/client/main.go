// Command client is an interactive terminal client for the disaster
// map: it joins or creates an event, places markers, edits reports and
// watches live updates from other clients, standing in for the browser
// UI against the same shared store.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spes-app/core/internal/config"
	"github.com/spes-app/core/internal/database"
	"github.com/spes-app/core/internal/models"
	"github.com/spes-app/core/internal/modules/event"
	"github.com/spes-app/core/internal/modules/geocode"
	"github.com/spes-app/core/internal/modules/marker"
	"github.com/spes-app/core/internal/modules/session"
	"github.com/spes-app/core/internal/modules/syncengine"
	"github.com/spes-app/core/internal/pkg/logging"
	pkgredis "github.com/spes-app/core/internal/pkg/redis"
)

const opTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger := logging.NewZapLogger(false)
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		os.Exit(1)
	}
	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "redis:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	markers := marker.NewService(db, marker.NewNotifier(rc, logger), logger)
	go markers.Run(ctx)

	engine := syncengine.New(engineStore{svc: markers}, clockwork.NewRealClock(), logger)
	sess := session.New(event.NewService(db, logger), logger)
	sess.AddListener(engine)
	geo := geocode.NewClient(cfg.Nominatim, logger)

	fmt.Println("spes client, type 'help' for commands")
	repl(ctx, sess, engine, geo)

	_ = db.Close(ctx)
	_ = rc.Close()
}

func repl(ctx context.Context, sess *session.Context, engine *syncengine.Engine, geo *geocode.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		done := runCommand(opCtx, cmd, args, sess, engine, geo)
		cancel()
		if done {
			return
		}

		if n := engine.Notice(); n != "" {
			fmt.Println("!", n)
		}
	}
}

// runCommand executes one REPL command; returns true on quit.
func runCommand(ctx context.Context, cmd string, args []string, sess *session.Context, engine *syncengine.Engine, geo *geocode.Client) bool {
	switch cmd {
	case "help":
		printHelp()

	case "join":
		if len(args) != 1 {
			fmt.Println("usage: join CODE")
			return false
		}
		if err := sess.Join(ctx, args[0]); err != nil {
			fmt.Println("join failed:", err)
			return false
		}
		fmt.Printf("joined %s centered at %s (%s)\n", sess.ActiveEventKey(), sess.MapCenter(), sess.Timezone())

	case "create":
		if len(args) != 1 && len(args) != 3 && len(args) != 4 {
			fmt.Println("usage: create CODE [LAT LNG [TIMEZONE]]")
			return false
		}
		var center *models.Coordinate
		tz := ""
		if len(args) >= 3 {
			pos, err := parseCoordinate(args[1], args[2])
			if err != nil {
				fmt.Println(err)
				return false
			}
			center = &pos
		}
		if len(args) == 4 {
			tz = args[3]
		}
		if err := sess.Create(ctx, args[0], center, tz); err != nil {
			fmt.Println("create failed:", err)
			return false
		}
		fmt.Printf("created and joined %s centered at %s\n", sess.ActiveEventKey(), sess.MapCenter())

	case "leave":
		sess.Leave(ctx)
		fmt.Println("left event")

	case "add":
		if len(args) != 2 {
			fmt.Println("usage: add LAT LNG")
			return false
		}
		pos, err := parseCoordinate(args[0], args[1])
		if err != nil {
			fmt.Println(err)
			return false
		}
		m, err := engine.AddAt(pos)
		if err != nil {
			if !errors.Is(err, syncengine.ErrNoActiveEvent) {
				fmt.Println("add failed:", err)
			}
			return false
		}
		fmt.Printf("placed marker %s at %s, now editing; use 'text', 'cat', then 'save'\n", m.LocalID, m.Position)

	case "edit":
		if len(args) != 1 {
			fmt.Println("usage: edit N   (index from 'list')")
			return false
		}
		idx, err := strconv.Atoi(args[0])
		visible := engine.Markers()
		if err != nil || idx < 1 || idx > len(visible) {
			fmt.Println("no such marker")
			return false
		}
		if err := engine.OpenEdit(visible[idx-1].LocalID); err != nil {
			fmt.Println("edit failed:", err)
			return false
		}
		ed, _ := engine.ActiveEdit()
		fmt.Printf("editing marker %s: %s\n", ed.LocalID, syncengine.Summary(ed.Text, ed.Category))

	case "text":
		ed, ok := engine.ActiveEdit()
		if !ok {
			fmt.Println("no marker open for editing")
			return false
		}
		_ = engine.SetScratch(strings.Join(args, " "), ed.Category)

	case "cat":
		if len(args) != 1 || !models.Category(args[0]).IsValid() {
			fmt.Printf("usage: cat EMOJI, one of %v\n", models.Categories)
			return false
		}
		ed, ok := engine.ActiveEdit()
		if !ok {
			fmt.Println("no marker open for editing")
			return false
		}
		_ = engine.SetScratch(ed.Text, models.Category(args[0]))

	case "save":
		if err := engine.Save(ctx); err != nil {
			fmt.Println("save failed:", err)
			return false
		}
		fmt.Println("saved")

	case "cancel":
		engine.CancelEdit()

	case "delete":
		if err := engine.Delete(ctx); err != nil {
			fmt.Println("delete failed:", err)
			return false
		}
		fmt.Println("deleted")

	case "list":
		visible := engine.Markers()
		if len(visible) == 0 {
			fmt.Println("no markers")
			return false
		}
		for i, m := range visible {
			flag := " "
			if m.IsPending {
				flag = "*"
			}
			fmt.Printf("%2d%s %s %s [%s]\n", i+1, flag, m.Position, syncengine.Summary(m.Report, m.Category), m.State)
		}

	case "where":
		fmt.Println(geo.ReverseName(ctx, sess.MapCenter()))

	case "quit", "exit":
		return true

	default:
		fmt.Println("unknown command; type 'help'")
	}
	return false
}

func parseCoordinate(latArg, lngArg string) (models.Coordinate, error) {
	lat, err1 := strconv.ParseFloat(latArg, 64)
	lng, err2 := strconv.ParseFloat(lngArg, 64)
	if err1 != nil || err2 != nil {
		return models.Coordinate{}, errors.New("coordinates must be numbers")
	}
	pos := models.Coordinate{Lat: lat, Lng: lng}
	if err := pos.Validate(); err != nil {
		return models.Coordinate{}, err
	}
	return pos, nil
}

func printHelp() {
	fmt.Print(`commands:
  join CODE                       join an existing event
  create CODE [LAT LNG [TZ]]      create an event and join it
  leave                           leave the active event
  add LAT LNG                     place a marker and open it for editing
  edit N                          open marker N (see 'list') for editing
  text WORDS...                   set the report text being edited
  cat EMOJI                       set the report category being edited
  save | cancel | delete          commit, discard or remove the edited marker
  list                            show visible markers (* = new)
  where                           reverse-geocode the map center
  quit
`)
}
