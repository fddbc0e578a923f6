package continuity

import (
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

func ExampleOwnerOption() {
	mac, _ := net.ParseMAC("11:22:33:44:55:66")
	owner, _ := NewOwnerOption(0, mac)
	fmt.Printf("%x\n", owner.Pack())
	fmt.Printf("%x\n", owner.Wake().Pack())
	// Output:
	// 000400080000112233445566
	// 000400080001112233445566
}

func ExampleDNSString() {
	s := MustDNSString("model=X").Concat(MustDNSString("osxvers=20"))
	fmt.Printf("%q\n", s.Bytes())
	// Output:
	// "\amodel=X\nosxvers=20"
}

func Example() {
	mac, _ := net.ParseMAC("11:22:33:44:55:66")
	owner, _ := NewOwnerOption(0, mac)

	// The OPT record is attached to the root, so its name must be written as a
	// zero-length label
	out := NewResponse().
		WithNameWriter(AllowZeroLengthNames(DefaultNameWriter)).
		AddAdditional(NewOptionsRecord(dns.ClassINET, 4500, owner.Pack(), time.Now()))
	buf, _ := out.Pack()
	fmt.Printf("%x\n", buf[12:])
	// Output:
	// 000029000100001194000c000400080000112233445566
}
