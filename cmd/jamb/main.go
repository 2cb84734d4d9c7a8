package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"jamb-online/internal/config"
	"jamb-online/internal/directory"
	"jamb-online/internal/engine"
	"jamb-online/internal/game"
	"jamb-online/internal/movelog"
	"jamb-online/internal/protocol"
)

// app drives one game session from the terminal: it owns the engine, the
// lobby client and, on the host side, the audit log.
type app struct {
	log    zerolog.Logger
	dir    *directory.Client
	eng    *engine.Engine
	gameID string

	mu   sync.Mutex
	snap protocol.Snapshot
	have bool

	tailer *movelog.Tailer
	done   chan struct{}
}

func main() {
	_ = godotenv.Load()

	var (
		name    = flag.String("name", "", "player name (required)")
		host    = flag.Bool("host", false, "host a new game")
		join    = flag.String("join", "", "game id to join via the directory")
		connect = flag.String("connect", "", "host address to connect to directly")
		listen  = flag.String("listen", "127.0.0.1:0", "listen address when hosting")
		list    = flag.Bool("list", false, "list joinable games and exit")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	dir := directory.NewClient(cfg.DirectoryURL, log)

	if *list {
		listGames(dir, log)
		return
	}

	if *name == "" {
		log.Fatal().Msg("-name is required")
	}
	if !*host && *join == "" && *connect == "" {
		log.Fatal().Msg("one of -host, -join or -connect is required")
	}

	a := &app{log: log, dir: dir, done: make(chan struct{})}

	switch {
	case *host:
		a.host(cfg, *name, *listen)
	case *join != "":
		a.join(*join, *name)
	default:
		a.connect(*connect, *name)
	}

	a.repl()
}

func listGames(dir *directory.Client, log zerolog.Logger) {
	games, err := dir.ListJoinable()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list games")
	}
	if len(games) == 0 {
		fmt.Println("no open games")
		return
	}
	for _, info := range games {
		fmt.Printf("%s  host=%s  addr=%s  %d/%d  %s\n",
			info.ID, info.HostName, info.Address, info.CurrentPlayers, info.MaxPlayers, info.Status)
	}
}

func (a *app) host(cfg *config.Config, name, listen string) {
	a.gameID = uuid.New().String()

	logger, err := movelog.New(a.gameID, cfg.LogDir, a.log)
	if err != nil {
		a.log.Fatal().Err(err).Msg("failed to open the move log")
	}
	a.tailer = movelog.NewTailer(logger, 2*time.Second, nil, a.log)

	a.eng = engine.NewHost(name, a.log)
	a.eng.SetRecorder(logger)
	a.eng.SetCallbacks(a.callbacks(func() {
		logger.Close()
	}))

	if err := a.eng.Start(listen); err != nil {
		a.log.Fatal().Err(err).Msg("failed to host the game")
	}

	info, err := a.dir.RegisterGame(directory.GameInfo{
		ID:             a.gameID,
		HostName:       name,
		Address:        a.eng.Addr(),
		CurrentPlayers: 1,
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("directory registration failed, game is direct-connect only")
	} else {
		fmt.Printf("hosting game %s at %s\n", info.ID, info.Address)
	}
	a.subscribeChat(name)
}

func (a *app) join(gameID, name string) {
	ok, err := a.dir.Join(gameID, name)
	if err != nil {
		a.log.Fatal().Err(err).Msg("cannot join")
	}
	if !ok {
		a.log.Fatal().Str("game_id", gameID).Msg("game is unknown or not joinable")
	}

	info, err := a.dir.GetGame(gameID)
	if err != nil {
		a.log.Fatal().Err(err).Msg("cannot join")
	}

	a.gameID = gameID
	a.connect(info.Address, name)
	a.subscribeChat(name)
}

func (a *app) connect(addr, name string) {
	a.eng = engine.NewClient(name, a.log)
	a.eng.SetCallbacks(a.callbacks(nil))
	if err := a.eng.Connect(addr); err != nil {
		a.log.Fatal().Err(err).Msg("could not join")
	}
	fmt.Printf("connected to %s\n", addr)
}

func (a *app) subscribeChat(name string) {
	if a.gameID == "" {
		return
	}
	_, err := a.dir.Subscribe(a.gameID, name, func(e directory.ChatEntry) {
		if e.Sender != name {
			fmt.Printf("[lobby] %s: %s\n", e.Sender, e.Message)
		}
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("lobby chat unavailable")
	}
}

func (a *app) callbacks(onOver func()) engine.Callbacks {
	return engine.Callbacks{
		OnStateChanged: func(s protocol.Snapshot) {
			a.mu.Lock()
			a.snap = s
			a.have = true
			a.mu.Unlock()
		},
		OnChatReceived: func(sender, text string) {
			fmt.Printf("[chat] %s: %s\n", sender, text)
		},
		OnPlayerJoined: func(n string, count int) {
			fmt.Printf("%s joined\n", n)
			if a.eng.Role() == engine.RoleHost && a.gameID != "" && count >= game.NumPlayers {
				if err := a.dir.UpdateStatus(a.gameID, count, directory.StatusFull); err != nil {
					a.log.Warn().Err(err).Msg("failed to update lobby status")
				}
			}
		},
		OnGameStarted: func(players []string) {
			fmt.Printf("game on: %s\n", strings.Join(players, " vs "))
			if a.eng.Role() == engine.RoleHost && a.gameID != "" {
				if err := a.dir.UpdateStatus(a.gameID, 2, directory.StatusInProgress); err != nil {
					a.log.Warn().Err(err).Msg("failed to update lobby status")
				}
			}
		},
		OnGameOver: func(winner string) {
			if winner == "" {
				fmt.Println("game over: tie")
			} else {
				fmt.Printf("game over, winner: %s\n", winner)
			}
			if a.eng.Role() == engine.RoleHost && a.gameID != "" {
				if err := a.dir.UpdateStatus(a.gameID, 2, directory.StatusFinished); err != nil {
					a.log.Warn().Err(err).Msg("failed to retire lobby entry")
				}
			}
			if onOver != nil {
				onOver()
			}
		},
		OnStatus: func(status string) {
			fmt.Println(status)
		},
	}
}

func (a *app) repl() {
	fmt.Println("commands: roll | hold N | score CATEGORY | chat MSG | state | lastmove | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")

		switch cmd {
		case "roll":
			a.eng.Roll()
		case "hold":
			die, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil || die < 1 || die > game.NumDice {
				fmt.Printf("usage: hold N (1..%d)\n", game.NumDice)
				continue
			}
			a.eng.ToggleHold(die - 1)
		case "score":
			cat := game.Category(strings.TrimSpace(rest))
			if !cat.Valid() {
				fmt.Printf("categories: %s\n", categoryList())
				continue
			}
			a.eng.ApplyScore(cat)
		case "chat":
			if rest == "" {
				continue
			}
			a.eng.SendChat(rest)
			if a.gameID != "" {
				if _, err := a.dir.SendChat(a.gameID, a.eng.LocalName(), rest); err != nil {
					a.log.Warn().Err(err).Msg("lobby chat send failed")
				}
			}
		case "state":
			a.printState()
		case "lastmove":
			a.printLastMove()
		case "quit", "exit":
			a.shutdown()
			return
		default:
			fmt.Println("commands: roll | hold N | score CATEGORY | chat MSG | state | lastmove | quit")
		}
	}
	a.shutdown()
}

func (a *app) printState() {
	a.mu.Lock()
	snap, have := a.snap, a.have
	a.mu.Unlock()

	if !have {
		fmt.Println("waiting for the game to start")
		return
	}

	held := make([]string, 0, game.NumDice)
	for i, d := range snap.Dice {
		mark := ""
		if snap.Held[i] {
			mark = "*"
		}
		held = append(held, fmt.Sprintf("%d%s", d, mark))
	}
	fmt.Printf("dice: %s  rolls: %d/%d  turn: %s\n",
		strings.Join(held, " "), snap.RollCount, game.MaxRolls, snap.CurrentPlayer)

	names := make([]string, 0, len(snap.Totals))
	for n := range snap.Totals {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %s: %d points, %d/%d categories\n",
			n, snap.Totals[n], len(snap.Sheets[n]), len(game.Categories()))
	}
	if snap.GameOver {
		fmt.Printf("game over, winner: %s\n", snap.Winner)
	}
}

func (a *app) printLastMove() {
	if a.tailer == nil {
		fmt.Println("move log runs on the host")
		return
	}
	rec, ok := a.tailer.Last()
	if !ok {
		fmt.Println("no moves yet")
		return
	}
	fmt.Println(rec.String())
}

func (a *app) shutdown() {
	if a.tailer != nil {
		a.tailer.Close()
	}
	_ = a.eng.Close()
	if a.eng.Role() == engine.RoleHost && a.gameID != "" {
		_ = a.dir.RemoveGame(a.gameID)
	}
}

func categoryList() string {
	cats := game.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
