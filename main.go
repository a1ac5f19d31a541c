package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gohl/alias"
	"gohl/cbuf"
	"gohl/client"
	"gohl/cmd"
	"gohl/conlog"
	"gohl/cvar"
	"gohl/filesystem"

	"github.com/gopxl/mainthread/v2"
	"github.com/pkg/errors"
)

const frameTime = time.Second / 72

var (
	commandBuffer cbuf.CommandBuffer
	aliases       = alias.New()
)

func init() {
	commandBuffer.SetCommandExecutors([]cbuf.Efunc{
		func(_ *cbuf.CommandBuffer, a cmd.Arguments) (bool, error) { return cmd.Execute(a) },
		aliases.Execute(),
		func(_ *cbuf.CommandBuffer, a cmd.Arguments) (bool, error) { return cvar.Execute(a) },
	})
	cmd.Must(aliases.Register(cmd.Default()))
	cmd.Must(cmd.AddCommand("exec", execCmd))
	cmd.Must(cmd.AddCommand("echo", func(a cmd.Arguments) error {
		conlog.Printf("%s\n", a.ArgumentString())
		return nil
	}))
}

func execCmd(a cmd.Arguments) error {
	if len(a.Args()) != 2 {
		return errors.New("exec <filename> : execute a script file")
	}
	name := a.Argv(1).String()
	b, err := filesystem.ReadFile(name)
	if err != nil {
		return errors.Wrapf(err, "couldn't exec %s", name)
	}
	conlog.Printf("execing %s\n", name)
	commandBuffer.InsertText(string(b))
	return nil
}

// writeConfig stores the archived cvars in the game directory.
func writeConfig() {
	f, err := os.Create(filepath.Join(filesystem.GameDir(), "config.cfg"))
	if err != nil {
		log.Printf("Couldn't write config.cfg: %v", err)
		return
	}
	defer f.Close()
	if err := cvar.WriteArchived(f); err != nil {
		log.Printf("Couldn't write config.cfg: %v", err)
	}
}

func main() {
	flag.Parse()
	mainthread.Run(run)
}

func run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.Must(cmd.AddCommand("quit", func(_ cmd.Arguments) error {
		stop()
		return nil
	}))

	var c *client.Client
	// the audio devices are opened on the main thread
	mainthread.Call(func() {
		c = client.Init(client.OptionsFromCommandline())
	})
	defer mainthread.Call(c.Shutdown)

	defer writeConfig()
	for _, cfg := range []string{"config.cfg", "autoexec.cfg"} {
		if _, err := filesystem.Current().Stat(cfg); err == nil {
			commandBuffer.AddText("exec " + cfg + "\n")
		}
	}
	console := newConsoleReader()
	defer console.flush()
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			console.read(&commandBuffer)
			commandBuffer.Execute()
			c.Frame()
			console.flush()
		}
	}
}
