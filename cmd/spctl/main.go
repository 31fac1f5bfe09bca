// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

// spctl is a small command-line controller for a remote media session. It
// binds the session named on the command line, optionally fires one
// transport verb, and can stay attached to print session events as they
// arrive.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"

	"github.com/spf13/viper"

	sessionproxy "github.com/ferrite-audio/sessionproxy"
	"github.com/ferrite-audio/sessionproxy/bundle"
	"github.com/ferrite-audio/sessionproxy/dbuschannel"
	"github.com/ferrite-audio/sessionproxy/logger"
	"github.com/ferrite-audio/sessionproxy/mediastate"
	"github.com/ferrite-audio/sessionproxy/transport"
)

var osExit = os.Exit // A variable to allow mocking os.Exit in tests

const DEVELOPMENT = "development"

// Version is the program version; usually set from BuildInfo
var Version string = DEVELOPMENT

func readConfig(configFile *string) {
	if configFile != nil && *configFile != "" {
		viper.SetConfigFile(*configFile)
	} else {
		viper.SetConfigName("sessionproxy")
		viper.SetConfigType("toml")
		viper.AddConfigPath("$HOME/.config/sessionproxy")
		viper.AddConfigPath(".")
	}
	// the config file is optional; every key has a default
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Fprintf(os.Stderr, "Config file error: %s\n", err)
			osExit(2)
		}
	}
}

func stateName(state int) string {
	names := map[int]string{
		mediastate.StateNone:      "none",
		mediastate.StateStopped:   "stopped",
		mediastate.StatePaused:    "paused",
		mediastate.StatePlaying:   "playing",
		mediastate.StateBuffering: "buffering",
		mediastate.StateError:     "error",
	}
	if n, ok := names[state]; ok {
		return n
	}
	return strconv.Itoa(state)
}

func printStatus(c *sessionproxy.Controller) {
	if s := c.PlaybackState(); s != nil {
		fmt.Printf("%-15s: %s @ %dms (x%.1f)\n", "state", stateName(s.State), s.PositionMs, s.Speed)
	}
	if m := c.Metadata(); m != nil {
		fmt.Printf("%-15s: %s / %s / %s\n", "now playing", m.Title, m.Artist, m.Album)
	}
	if title := c.QueueTitle(); title != "" {
		fmt.Printf("%-15s: %s (%d items)\n", "queue", title, len(c.Queue()))
	}
	if info := c.PlaybackInfo(); info != nil {
		fmt.Printf("%-15s: %d/%d\n", "volume", info.CurrentVolume, info.MaxVolume)
	}
	fmt.Printf("%-15s: %s\n", "owner", c.PackageName())
	fmt.Printf("%-15s: %t\n", "session ready", c.IsSessionReady())
}

// return codes:
// 0 - OK
// 1 - generic errors
// 2 - config errors
func main() {
	help := flag.Bool("help", false, "Print usage")
	configFile := flag.String("config", "", "use config `file`")
	verb := flag.String("verb", "", "transport verb to send (play, pause, stop, next, previous)")
	seek := flag.Int64("seek", -1, "seek to position in `ms`")
	volume := flag.Int("volume", -1, "set output volume")
	watch := flag.Bool("watch", false, "stay attached and print session events")
	version := flag.Bool("version", false, "print the spctl version and exit")

	flag.Parse()
	if *help {
		fmt.Printf("USAGE: %s <args> <session bus name>\n", os.Args[0])
		flag.Usage()
		osExit(0)
	}
	if Version == DEVELOPMENT {
		if bi, ok := debug.ReadBuildInfo(); ok {
			Version = bi.Main.Version
		}
	}
	if *version {
		fmt.Printf("spctl %s\n", Version)
		osExit(0)
	}
	if flag.NArg() != 1 {
		fmt.Printf("USAGE: %s <args> <session bus name>\n", os.Args[0])
		flag.Usage()
		osExit(0)
	}

	readConfig(configFile)

	log := logger.Init()
	dbuschannel.Register(log)

	token := transport.Token{Scheme: dbuschannel.Scheme, Addr: flag.Arg(0)}
	controller, err := sessionproxy.NewController(token, sessionproxy.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to bind session %q: %s\n", token.Addr, err)
		osExit(1)
	}
	defer controller.Close()

	tc := controller.TransportControls()
	switch *verb {
	case "":
	case "play":
		err = tc.Play()
	case "pause":
		err = tc.Pause()
	case "stop":
		err = tc.Stop()
	case "next":
		err = tc.SkipToNext()
	case "previous":
		err = tc.SkipToPrevious()
	default:
		fmt.Fprintf(os.Stderr, "Unknown verb %q\n", *verb)
		osExit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verb failed: %s\n", err)
		osExit(1)
	}
	if *seek >= 0 {
		if err := tc.SeekTo(*seek); err != nil {
			fmt.Fprintf(os.Stderr, "Seek failed: %s\n", err)
			osExit(1)
		}
	}
	if *volume >= 0 {
		if err := controller.SetVolumeTo(*volume, 0); err != nil {
			fmt.Fprintf(os.Stderr, "Volume failed: %s\n", err)
			osExit(1)
		}
	}

	printStatus(controller)

	if !*watch {
		return
	}

	done := make(chan struct{})
	cb := &sessionproxy.Callback{
		OnPlaybackStateChanged: func(s *mediastate.PlaybackState) {
			if s != nil {
				fmt.Printf("state: %s @ %dms\n", stateName(s.State), s.PositionMs)
			}
		},
		OnMetadataChanged: func(m *mediastate.Metadata) {
			if m != nil {
				fmt.Printf("track: %s / %s\n", m.Title, m.Artist)
			}
		},
		OnQueueChanged: func(q []mediastate.QueueItem) {
			fmt.Printf("queue: %d items\n", len(q))
		},
		OnSessionEvent: func(name string, extras *bundle.Bundle) {
			fmt.Printf("event: %s\n", name)
		},
		OnSessionDestroyed: func() {
			fmt.Println("session destroyed")
			close(done)
		},
	}
	if err := controller.RegisterCallback(cb, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to watch session: %s\n", err)
		osExit(1)
	}
	defer controller.UnregisterCallback(cb)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigs:
	case <-done:
	}
}
