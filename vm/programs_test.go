package vm

// Sample programs shared by the vm tests.

const helloWorldFlat = `
+++++++++++++++++++++++++++++++
+++++++++++++++++++++++++++++++
++++++++++.++++++++++++++++++++
+++++++++.+++++++..+++.--------
-------------------------------
-------------------------------
---------.+++++++++++++++++++++
+++++++++++++++++++++++++++++++
+++.++++++++++++++++++++++++.++
+.------.--------.-------------
-------------------------------
-----------------------.-------
----------------.
`

const helloWorldLooped = `
++++++++++[>+++++++>++++++++++>
+++>+<<<<-]>++.>+.+++++++..+++.
>++.<<+++++++++++++++.>.+++.---
---.--------.>+.>.
`

// bubbleSort sorts the bytes of its input (bsort.b by Daniel B. Cristofani).
const bubbleSort = `
>>,[>>,]<<[
[<<]>>>>[
<<[>+<<+>-]
>>[>+<<<<[->]>[<]>>-]
<<<[[-]>>[>+<-]>>[<<<+>>>-]]
>>[[<+>-]>>]<
]<<[>>+<<-]<<
]>>>>[.>>]
`
