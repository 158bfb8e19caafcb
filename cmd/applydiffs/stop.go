// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2026 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/tomb.v2"

	"github.com/listsync/applydiffs/logger"
)

var signalNotify = signal.Notify

// runUntilSignal runs f with a context that is cancelled once SIGINT
// or SIGTERM arrives.
func runUntilSignal(f func(ctx context.Context) error) error {
	sigs := make(chan os.Signal, 1)
	signalNotify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	t, ctx := tomb.WithContext(context.Background())
	t.Go(func() error {
		select {
		case sig := <-sigs:
			logger.Noticef("received %s, stopping", sig)
			return fmt.Errorf("stopped by %s", sig)
		case <-t.Dying():
			return nil
		}
	})
	var err error
	t.Go(func() error {
		err = f(ctx)
		t.Kill(nil)
		return nil
	})
	t.Wait()
	return err
}
