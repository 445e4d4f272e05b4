package main

import (
    "fmt"
    "os"

    "github.com/spf13/cobra"

    rsinitcli "github.com/amirimatin/mongo-rsinit/pkg/cli"
)

func main() {
    if err := newRoot().Execute(); err != nil {
        fmt.Fprintln(os.Stderr, "rsinit:", err)
        os.Exit(1)
    }
}

func newRoot() *cobra.Command {
    root := &cobra.Command{
        Use:           "rsinit",
        Short:         "Bootstrap a MongoDB replica set and wait for its primary",
        SilenceUsage:  true,
        SilenceErrors: true,
    }
    rsinitcli.AddGlobalFlags(root.PersistentFlags())
    rsinitcli.AddAll(root)
    return root
}
