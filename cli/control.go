package cli

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/colorblob/control"
)

// flagOpcodes maps the names accepted by enable and disable to their opcodes.
var flagOpcodes = map[string]control.Opcode{
	"test-image": control.OpTestImageEnable,
	"yuv-write":  control.OpYUVWriteEnable,
	"jpg-write":  control.OpJPGWriteEnable,
	"detect":     control.OpDetectYUVEnable,
	"merge-rows": control.OpMergeRowsEnable,
}

func flagNamesUsage() string {
	names := lo.Keys(flagOpcodes)
	slices.Sort(names)
	return strings.Join(names, "|")
}

// ThresholdsAction sends new detection thresholds.
func ThresholdsAction(c *cli.Context) error {
	if c.Args().Len() != len(thresholdNames) {
		return errors.Errorf("expected %s, got %d arguments", thresholdArgsUsage, c.Args().Len())
	}
	thresholds, err := parseThresholds(c.Args().Slice())
	if err != nil {
		return err
	}
	return sendMessage(c, control.EncodeThresholds(thresholds))
}

// FlagAction returns an action turning the named flag on or off.
func FlagAction(on bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return errors.Errorf("expected one of %s", flagNamesUsage())
		}
		op, ok := flagOpcodes[c.Args().First()]
		if !ok {
			return errors.Errorf("unknown flag %q, expected one of %s", c.Args().First(), flagNamesUsage())
		}
		return sendMessage(c, control.EncodeBool(op, on))
	}
}

// SetAction sends an arbitrary control message named by its opcode.
func SetAction(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return errors.New("expected an opcode")
	}
	op, err := control.ParseOpcode(c.Args().First())
	if err != nil {
		return err
	}
	args := c.Args().Tail()

	switch op {
	case control.OpQuit:
		return sendMessage(c, []byte{byte(control.OpQuit)})
	case control.OpBlobYUV:
		if len(args) != len(thresholdNames) {
			return errors.Errorf("%s expects %s", op, thresholdArgsUsage)
		}
		thresholds, err := parseThresholds(args)
		if err != nil {
			return err
		}
		return sendMessage(c, control.EncodeThresholds(thresholds))
	}

	if len(args) != op.Words() {
		return errors.Errorf("%s expects %d values, got %d", op, op.Words(), len(args))
	}
	if op.FloatPayload() {
		values := make([]float32, len(args))
		for i, arg := range args {
			v, err := strconv.ParseFloat(arg, 32)
			if err != nil {
				return errors.Wrapf(err, "invalid %s value", op)
			}
			values[i] = float32(v)
		}
		return sendMessage(c, control.EncodeFloats(op, values...))
	}
	values := make([]int32, len(args))
	for i, arg := range args {
		v, err := strconv.ParseInt(arg, 10, 32)
		if err != nil {
			return errors.Wrapf(err, "invalid %s value", op)
		}
		values[i] = int32(v)
	}
	return sendMessage(c, control.EncodeInts(op, values...))
}

// sendMessage delivers one message on a fresh connection. The server never replies, so success
// only means the message was written.
func sendMessage(c *cli.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration(controlFlagTimeout))
	defer cancel()
	address := c.String(controlFlagAddress)
	client, err := control.Dial(ctx, address)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(client.Close)
	if err := client.Send(msg); err != nil {
		return errors.Wrapf(err, "failed to send %s", control.Opcode(msg[0]))
	}
	printf(c.App.Writer, "sent %s to %s", control.Opcode(msg[0]), address)
	return nil
}
