package monitoring

import "strings"

var receiverTrimmer = strings.NewReplacer("(*", "", "(", "", ")", "")

// getSegmentName turns a runtime function name into "pkg.Receiver.Method".
func getSegmentName(fullFuncName string) string {
	name := fullFuncName
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return receiverTrimmer.Replace(name)
}
