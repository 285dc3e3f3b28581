package facts

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// BlockDevices runs lsblk in JSON mode and flattens the device tree.
// Partitions inherit the transport of their parent disk, since lsblk only
// reports TRAN on the disk node.
func (h *HostSource) BlockDevices(ctx context.Context) ([]BlockDevice, error) {
	if err := h.requireTool("lsblk"); err != nil {
		return nil, err
	}

	out, err := h.runner.Output(ctx, "lsblk", "-J", "-o", "NAME,TRAN,MOUNTPOINT")
	if err != nil {
		return nil, fmt.Errorf("list block devices: %w", err)
	}
	return parseLsblk(out)
}

func parseLsblk(out []byte) ([]BlockDevice, error) {
	if !gjson.ValidBytes(out) {
		return nil, errors.New("lsblk: output is not valid JSON")
	}
	root := gjson.GetBytes(out, "blockdevices")
	if !root.IsArray() {
		return nil, errors.New("lsblk: missing blockdevices array")
	}

	var devices []BlockDevice
	var walk func(nodes gjson.Result, parentTran string)
	walk = func(nodes gjson.Result, parentTran string) {
		nodes.ForEach(func(_, node gjson.Result) bool {
			name := node.Get("name").String()
			if name == "" {
				return true
			}
			tran := node.Get("tran").String()
			if tran == "" {
				tran = parentTran
			}
			devices = append(devices, BlockDevice{
				Name:       name,
				Transport:  tran,
				Mountpoint: node.Get("mountpoint").String(),
			})
			walk(node.Get("children"), tran)
			return true
		})
	}
	walk(root, "")

	return devices, nil
}
