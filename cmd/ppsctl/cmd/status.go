/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gnsstime/ppsmond/ppsdaemon"
)

func init() {
	RootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&target, "target", "http://localhost:21039", "ppsmond status endpoint base URL")
}

func status() error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("fetch status from %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status request returned %s", resp.Status)
	}

	var devices map[string]ppsdaemon.DeviceStatus
	if err := json.NewDecoder(resp.Body).Decode(&devices); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	for name, st := range devices {
		fmt.Printf("%-20s real=%d clock=%d.%09d count=%d\n", name, st.RealSec, st.ClockSec, st.ClockNsec, st.Count)
	}
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "show the last published pulse for every monitored device",
	Run: func(_ *cobra.Command, _ []string) {
		if err := status(); err != nil {
			log.Fatal(err)
		}
	},
}
