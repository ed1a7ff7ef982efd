/*
 * plot_command.go, part of structset.
 *
 * Copyright 2024 The structset authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmera/structset/ceplot"
	"github.com/rmera/structset/raw"
)

func newPlotCommand(ctx *commandContext) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "plot <raw-dir> <element> <output.png>",
		Short: "Plot energy against the concentration of an element, with the lower hull",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			C, err := raw.ReadDir(args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = fmt.Sprintf("Energy vs. %s concentration", args[1])
			}
			p, err := ceplot.EnergyConcentration(C, args[1], title)
			if err != nil {
				return err
			}
			return ceplot.Save(p, args[2])
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Plot title")
	return cmd
}
