//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Writes the sample scenes and round trips their weights through a .weight file.
func (Run) Testbed() error {
	mg.Deps(Build.Binary)

	dir := "testbed/out"
	fmt.Println("Run testbed...")
	steps := [][]string{
		{"testbed", dir},
		{"export", "--workspace", dir, "--scene", dir + "/hero_rig.scene.toml", "--shape", "body", "--output", "hero"},
		{"import", "--workspace", dir, "--scene", dir + "/hero_anim.scene.toml", "--shape", "body", "--input", "hero.weight", "--remap", "hero.remap.toml"},
		{"inspect", dir + "/hero.weight"},
	}
	for _, args := range steps {
		if _, err := executeCmd("bin/skinio", withArgs(args...), withStream()); err != nil {
			return err
		}
	}
	return nil
}
