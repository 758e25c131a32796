package npc

import (
	"fmt"
	"log/slog"
)

// PoseHeadYaw is the pose parameter turned by head aiming.
const PoseHeadYaw = "head_yaw"

// RegisterPoseParameter caches the handle of a pose parameter. Called at
// setup; a name the model does not have aborts initialization.
func (n *NPC) RegisterPoseParameter(name string) int {
	h, ok := n.anim.LookupPoseParameter(name)
	if !ok {
		panic(fmt.Sprintf("npc: %s (%s) has no pose parameter %q", n.name, n.class, name))
	}
	n.poseParams[name] = h
	return h
}

// RegisterFlexController caches the handle of a flex controller.
func (n *NPC) RegisterFlexController(name string) int {
	h, ok := n.anim.LookupFlexController(name)
	if !ok {
		panic(fmt.Sprintf("npc: %s (%s) has no flex controller %q", n.name, n.class, name))
	}
	n.flexControllers[name] = h
	return h
}

// PoseParameter returns a registered pose parameter handle.
func (n *NPC) PoseParameter(name string) (int, bool) {
	h, ok := n.poseParams[name]
	return h, ok
}

// FlexController returns a registered flex controller handle. Asking for
// one that was never registered is a setup mistake and panics.
func (n *NPC) FlexController(name string) int {
	h, ok := n.flexControllers[name]
	if !ok {
		slog.Error("flex controller not registered", "npc", n.name, "class", n.class, "name", name)
		panic(fmt.Sprintf("npc: flex controller %q used by %s but never registered", name, n.class))
	}
	return h
}

// SetPoseParameter sets a registered pose parameter. Unregistered names are ignored.
func (n *NPC) SetPoseParameter(name string, value float64) bool {
	h, ok := n.poseParams[name]
	if !ok {
		return false
	}
	n.anim.SetPoseParameter(n.id, h, value)
	return true
}

// SetMouthFlex names the registered flex controller opened while talking.
func (n *NPC) SetMouthFlex(name string) {
	n.FlexController(name)
	n.mouth = name
}
