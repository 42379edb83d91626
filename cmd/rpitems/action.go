package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"rpitems/internal/catalog"
	"rpitems/internal/item"
)

func actionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Edit the actions of a working item",
	}
	cmd.AddCommand(actionAddCmd())
	cmd.AddCommand(actionRemoveCmd())
	return cmd
}

func actionAddCmd() *cobra.Command {
	var methods []string
	var conditions item.Conditions
	cmd := &cobra.Command{
		Use:   "add <item-id> <label>",
		Short: "Add an action to an item",
		Long: "Add an action to an item. Each --method is type[:key=value[,key=value]],\n" +
			"for example --method 'say:text=Hello there' --method 'consume:amount=1'.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			parsed := make([]item.Method, 0, len(methods))
			for _, m := range methods {
				method, err := parseMethod(m)
				if err != nil {
					return err
				}
				parsed = append(parsed, method)
			}

			var actionID string
			err = runItemEdit(func(ws *catalog.Workspace) error {
				actionID, err = ws.AddAction(id, args[1], parsed, conditions)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, actionID)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&methods, "method", nil, "Method to run, repeatable")
	cmd.Flags().BoolVar(&conditions.CustomTextEmpty, "if-custom-text-empty", false, "Only show when the instance has no custom text")
	cmd.Flags().BoolVar(&conditions.CounterGreaterThanZero, "if-counter-positive", false, "Only show while the instance counter is above zero")
	return cmd
}

func actionRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id> <action-id>",
		Short: "Remove an action from an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runItemEdit(func(ws *catalog.Workspace) error {
				return ws.RemoveAction(id, args[1])
			})
		},
	}
}

func parseMethod(s string) (item.Method, error) {
	typ, rest, _ := strings.Cut(s, ":")
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return item.Method{}, fmt.Errorf("method %q has no type", s)
	}
	method := item.Method{Type: item.MethodType(typ)}
	if strings.TrimSpace(rest) == "" {
		return method, nil
	}
	method.Params = make(map[string]string)
	for _, pair := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return item.Method{}, fmt.Errorf("method %q: parameter %q is not key=value", s, pair)
		}
		method.Params[key] = value
	}
	return method, nil
}

func formatMethod(m item.Method) string {
	if len(m.Params) == 0 {
		return string(m.Type)
	}
	keys := make([]string, 0, len(m.Params))
	for k := range m.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+m.Params[k])
	}
	return string(m.Type) + ":" + strings.Join(pairs, ",")
}
