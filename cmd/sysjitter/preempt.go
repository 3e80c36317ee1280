package main

import "strings"

const asyncPreemptOff = "asyncpreemptoff=1"

// preemptionEnv returns environ with asynchronous preemption turned off in
// GODEBUG, and whether anything had to change. A GODEBUG that already
// mentions asyncpreemptoff is left as the user set it.
func preemptionEnv(environ []string) ([]string, bool) {
	env := make([]string, 0, len(environ)+1)
	godebug := ""
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, "GODEBUG="); ok {
			godebug = v
			continue
		}
		env = append(env, kv)
	}
	if strings.Contains(godebug, "asyncpreemptoff=") {
		return environ, false
	}
	if godebug != "" {
		godebug += ","
	}
	return append(env, "GODEBUG="+godebug+asyncPreemptOff), true
}
