package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type ArgParameter interface {
	Names() []string
	// config variable set by the argument, empty for arguments only the
	// command line uses
	Key() string
	ArgCount() int
	HelpMessage() string
	ValidateAndParse(usedName string, args []string) (string, error)
	DefaultValue() string
}

func NewArgs(defaultUsageExample string) Args {
	return Args{
		nil,
		defaultUsageExample,
		make(map[string]ArgParameter),
	}
}

type Args struct {
	args                []ArgParameter
	defaultUsageExample string
	flagNameToArg       map[string]ArgParameter
}

func (args *Args) add(arg ArgParameter) {
	args.args = append(args.args, arg)
	for _, name := range arg.Names() {
		args.flagNameToArg[name] = arg
	}
}

func (args *Args) AddStringArg(names []string, key string, helpMessage string, defaultValue string) {
	args.add(&stringArg{names, key, helpMessage, defaultValue})
}

func (args *Args) AddIntegerArg(names []string, key string, helpMessage string, defaultValue int64, minValue int64, maxValue int64) {
	args.add(&integerArg{names, key, helpMessage, minValue, maxValue, defaultValue})
}

func (args *Args) AddFlagArg(names []string, key string, helpMessage string) {
	args.add(&flagArg{names, key, helpMessage})
}

func (args *Args) CreateHelpMessage() string {
	var result = []string{args.defaultUsageExample}

	result = append(result, "")

	for _, arg := range args.args {
		result = append(result, fmt.Sprintf("    %s %s", strings.Join(arg.Names(), ", "), arg.HelpMessage()))
	}

	return strings.Join(result, "\n")
}

// Parse returns the values of the named arguments keyed by their config
// variable, and the remaining positional arguments. Named arguments that
// are not given are left out so config defaults apply.
func (args *Args) Parse(stringArgs []string) (map[string]string, []string, []error) {
	var namedArgs = make(map[string]string)
	var listArguments []string = nil
	var errs []error = nil

	for index := 0; index < len(stringArgs); {
		var current = stringArgs[index]
		index++

		argParam, ok := args.flagNameToArg[current]

		if ok {
			var maxActualArgs = len(stringArgs) - index
			if maxActualArgs >= argParam.ArgCount() {
				value, err := argParam.ValidateAndParse(current, stringArgs[index:index+argParam.ArgCount()])

				if err != nil {
					errs = append(errs, err)
				} else {
					namedArgs[argParam.Key()] = value
				}

				index += argParam.ArgCount()
			} else {
				errs = append(errs, errors.Errorf("%s expects %d args, got %d", current, argParam.ArgCount(), maxActualArgs))
			}
		} else if len(current) != 0 && current[0] == '-' {
			errs = append(errs, errors.Errorf("Unknown parameter %s", current))
		} else {
			listArguments = append(listArguments, current)
		}
	}

	for _, arg := range args.args {
		if _, has := namedArgs[arg.Key()]; !has && arg.DefaultValue() != "" {
			namedArgs[arg.Key()] = arg.DefaultValue()
		}
	}

	return namedArgs, listArguments, errs
}

type stringArg struct {
	names        []string
	key          string
	helpMessage  string
	defaultValue string
}

func (arg *stringArg) Names() []string {
	return arg.names
}

func (arg *stringArg) Key() string {
	return arg.key
}

func (arg *stringArg) ArgCount() int {
	return 1
}

func (arg *stringArg) HelpMessage() string {
	return arg.helpMessage
}

func (arg *stringArg) ValidateAndParse(usedName string, args []string) (string, error) {
	return args[0], nil
}

func (arg *stringArg) DefaultValue() string {
	return arg.defaultValue
}

type integerArg struct {
	names        []string
	key          string
	helpMessage  string
	minValue     int64
	maxValue     int64
	defaultValue int64
}

func (arg *integerArg) Names() []string {
	return arg.names
}

func (arg *integerArg) Key() string {
	return arg.key
}

func (arg *integerArg) ArgCount() int {
	return 1
}

func (arg *integerArg) HelpMessage() string {
	return arg.helpMessage
}

func (arg *integerArg) ValidateAndParse(usedName string, args []string) (string, error) {
	asInt, err := strconv.ParseInt(args[0], 10, 64)

	if err != nil || asInt < arg.minValue || asInt > arg.maxValue {
		return "", errors.Errorf("%s should be an integer in the range [%d, %d]", usedName, arg.minValue, arg.maxValue)
	}

	return strconv.FormatInt(asInt, 10), nil
}

func (arg *integerArg) DefaultValue() string {
	if arg.defaultValue == 0 {
		return ""
	}

	return strconv.FormatInt(arg.defaultValue, 10)
}

type flagArg struct {
	names       []string
	key         string
	helpMessage string
}

func (arg *flagArg) Names() []string {
	return arg.names
}

func (arg *flagArg) Key() string {
	return arg.key
}

func (arg *flagArg) ArgCount() int {
	return 0
}

func (arg *flagArg) HelpMessage() string {
	return arg.helpMessage
}

func (arg *flagArg) ValidateAndParse(usedName string, args []string) (string, error) {
	return "true", nil
}

func (arg *flagArg) DefaultValue() string {
	return ""
}
